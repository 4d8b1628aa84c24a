// Package settle folds a trip's ledger into per-user balances and plans the
// transfers that clear them. Balances follow one sign convention throughout:
// positive means the group owes the user, negative means the user owes the
// group. Every expense and confirmed payment is zero-sum, so balances always
// sum to zero in cents.
package settle

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/money"
)

// Expense is the slice of an expense row the calculator needs: who fronted
// the money and how much.
type Expense struct {
	PaidBy uuid.UUID
	Total  money.Cents
}

// Split is one user's share of some expense.
type Split struct {
	UserID uuid.UUID
	Share  money.Cents
}

// Payment is a peer-to-peer transfer. Only confirmed payments move balances;
// pending and declined rows are carried for context but ignored here.
type Payment struct {
	From      uuid.UUID
	To        uuid.UUID
	Amount    money.Cents
	Confirmed bool
}

// Transfer is one planned settlement payment.
type Transfer struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount money.Cents
}

// ComputeBalances folds expenses, their splits, and confirmed payments into
// a signed balance per user. Every member appears in the result, settled
// members at zero. Users appearing only in ledger rows (historical members)
// are included as well so the total stays zero-sum.
func ComputeBalances(members []uuid.UUID, expenses []Expense, splits []Split, payments []Payment) map[uuid.UUID]money.Cents {
	balances := make(map[uuid.UUID]money.Cents, len(members))
	for _, id := range members {
		balances[id] = 0
	}

	for _, e := range expenses {
		balances[e.PaidBy] += e.Total
	}
	for _, s := range splits {
		balances[s.UserID] -= s.Share
	}
	for _, p := range payments {
		if !p.Confirmed {
			continue
		}
		balances[p.From] += p.Amount
		balances[p.To] -= p.Amount
	}

	return balances
}

// PlanSettlements produces a deterministic list of transfers that drives
// every balance inside the settle threshold. Largest debtor pays largest
// creditor first; equal magnitudes order by user ID so the plan is stable
// across runs. The count never exceeds the number of unsettled users minus
// one.
//
// The plan is advisory. Sub-cent slack from an unbalanced input is dropped
// once one side runs out.
func PlanSettlements(balances map[uuid.UUID]money.Cents) []Transfer {
	type position struct {
		userID uuid.UUID
		amount money.Cents
	}

	var creditors, debtors []position
	for id, balance := range balances {
		switch {
		case balance >= money.SettleThreshold:
			creditors = append(creditors, position{userID: id, amount: balance})
		case balance <= -money.SettleThreshold:
			debtors = append(debtors, position{userID: id, amount: -balance})
		}
	}

	byMagnitude := func(list []position) func(a, b int) bool {
		return func(a, b int) bool {
			if list[a].amount != list[b].amount {
				return list[a].amount > list[b].amount
			}
			return bytes.Compare(list[a].userID[:], list[b].userID[:]) < 0
		}
	}
	sort.Slice(creditors, byMagnitude(creditors))
	sort.Slice(debtors, byMagnitude(debtors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := min(debtors[i].amount, creditors[j].amount)
		transfers = append(transfers, Transfer{
			From:   debtors[i].userID,
			To:     creditors[j].userID,
			Amount: amount,
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount < money.SettleThreshold {
			i++
		}
		if creditors[j].amount < money.SettleThreshold {
			j++
		}
	}

	return transfers
}
