package money

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightsOf(amounts ...Cents) []Weight {
	ws := make([]Weight, len(amounts))
	for i, a := range amounts {
		ws[i] = Weight{UserID: uuid.New(), Amount: a}
	}
	return ws
}

func sumShares(shares map[uuid.UUID]Cents) Cents {
	var total Cents
	for _, c := range shares {
		total += c
	}
	return total
}

func TestAllocateProportional(t *testing.T) {
	ws := weightsOf(200, 100, 100)
	shares := Allocate(ws, 400)

	require.Len(t, shares, 3)
	assert.Equal(t, Cents(200), shares[ws[0].UserID])
	assert.Equal(t, Cents(100), shares[ws[1].UserID])
	assert.Equal(t, Cents(100), shares[ws[2].UserID])
}

func TestAllocateLargestRemainder(t *testing.T) {
	// Five cents of tax over item shares of 3.34/3.33/3.33: the extra cents
	// land on the largest remainders, earlier positions winning the tie.
	ws := weightsOf(334, 333, 333)
	shares := Allocate(ws, 5)

	assert.Equal(t, Cents(2), shares[ws[0].UserID])
	assert.Equal(t, Cents(2), shares[ws[1].UserID])
	assert.Equal(t, Cents(1), shares[ws[2].UserID])
	assert.Equal(t, Cents(5), sumShares(shares))
}

func TestAllocateSumPreserved(t *testing.T) {
	tests := []struct {
		name    string
		weights []Cents
		pool    Cents
	}{
		{"even thirds", []Cents{1, 1, 1}, 1000},
		{"uneven", []Cents{7, 3, 11}, 999},
		{"single", []Cents{42}, 1234},
		{"many small", []Cents{1, 2, 3, 4, 5, 6, 7}, 101},
		{"large pool", []Cents{999999, 1}, 10000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := weightsOf(tt.weights...)
			shares := Allocate(ws, tt.pool)
			assert.Equal(t, tt.pool, sumShares(shares))
			for _, w := range ws {
				assert.Contains(t, shares, w.UserID)
				assert.GreaterOrEqual(t, int64(shares[w.UserID]), int64(0))
			}
		})
	}
}

func TestAllocateScaleInvariant(t *testing.T) {
	a := weightsOf(300, 200, 500)
	b := make([]Weight, len(a))
	for i, w := range a {
		b[i] = Weight{UserID: w.UserID, Amount: w.Amount * 2}
	}

	assert.Equal(t, Allocate(a, 777), Allocate(b, 777))
}

func TestAllocateEdgeCases(t *testing.T) {
	t.Run("empty weights", func(t *testing.T) {
		assert.Empty(t, Allocate(nil, 500))
	})

	t.Run("zero pool", func(t *testing.T) {
		ws := weightsOf(1, 2)
		shares := Allocate(ws, 0)
		assert.Equal(t, Cents(0), shares[ws[0].UserID])
		assert.Equal(t, Cents(0), shares[ws[1].UserID])
	})

	t.Run("zero total weight splits evenly", func(t *testing.T) {
		ws := weightsOf(0, 0, 0)
		shares := Allocate(ws, 1000)
		assert.Equal(t, Cents(334), shares[ws[0].UserID])
		assert.Equal(t, Cents(333), shares[ws[1].UserID])
		assert.Equal(t, Cents(333), shares[ws[2].UserID])
	})

	t.Run("negative pool mirrors positive", func(t *testing.T) {
		ws := weightsOf(1, 1, 1)
		shares := Allocate(ws, -1000)
		assert.Equal(t, Cents(-1000), sumShares(shares))
		assert.Equal(t, Cents(-334), shares[ws[0].UserID])
	})
}

func TestSplitEven(t *testing.T) {
	tests := []struct {
		name string
		n    int
		pool Cents
		want []Cents
	}{
		{"exact thirds", 3, 3600, []Cents{1200, 1200, 1200}},
		{"penny spread", 3, 1000, []Cents{334, 333, 333}},
		{"two way odd", 2, 101, []Cents{51, 50}},
		{"single", 1, 999, []Cents{999}},
		{"negative", 3, -1000, []Cents{-334, -333, -333}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitEven(tt.n, tt.pool)
			assert.Equal(t, tt.want, got)

			var sum Cents
			for _, c := range got {
				sum += c
			}
			assert.Equal(t, tt.pool, sum)
		})
	}

	assert.Nil(t, SplitEven(0, 100))
}
