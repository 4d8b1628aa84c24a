package money

import (
	"sort"

	"github.com/google/uuid"
)

// Weight is one participant's share weight for a proportional allocation.
// Weights arrive as an ordered slice so that ties break deterministically by
// input position.
type Weight struct {
	UserID uuid.UUID
	Amount Cents
}

// Allocate splits pool across the weighted participants using the largest
// remainder method. The returned shares always sum to exactly pool.
//
// Each participant first receives floor(pool * weight / total). The cents
// left over go one each to the participants with the largest truncated
// remainders, earlier input positions winning ties. A zero total weight with
// participants present degrades to an even split.
//
// Amount validation bounds inputs well below the point where pool*weight
// could overflow int64.
func Allocate(weights []Weight, pool Cents) map[uuid.UUID]Cents {
	shares := make(map[uuid.UUID]Cents, len(weights))
	if len(weights) == 0 {
		return shares
	}
	if pool == 0 {
		for _, w := range weights {
			shares[w.UserID] = 0
		}
		return shares
	}
	if pool < 0 {
		for id, c := range Allocate(weights, -pool) {
			shares[id] = -c
		}
		return shares
	}

	var total Cents
	for _, w := range weights {
		total += w.Amount
	}
	if total == 0 {
		even := SplitEven(len(weights), pool)
		for i, w := range weights {
			shares[w.UserID] = even[i]
		}
		return shares
	}

	type slot struct {
		index     int
		remainder int64
	}
	slots := make([]slot, len(weights))

	allocated := Cents(0)
	for i, w := range weights {
		product := int64(pool) * int64(w.Amount)
		share := Cents(product / int64(total))
		shares[w.UserID] = share
		allocated += share
		slots[i] = slot{index: i, remainder: product % int64(total)}
	}

	deficit := pool - allocated
	if deficit > 0 {
		sort.SliceStable(slots, func(a, b int) bool {
			return slots[a].remainder > slots[b].remainder
		})
		for i := Cents(0); i < deficit; i++ {
			shares[weights[slots[i].index].UserID]++
		}
	}

	return shares
}

// SplitEven divides pool into n shares that sum to exactly pool. Every share
// gets the floor; the first pool mod n shares carry one extra cent.
func SplitEven(n int, pool Cents) []Cents {
	if n <= 0 {
		return nil
	}
	if pool < 0 {
		out := SplitEven(n, -pool)
		for i := range out {
			out[i] = -out[i]
		}
		return out
	}
	base := pool / Cents(n)
	rem := int(pool % Cents(n))
	out := make([]Cents, n)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}
