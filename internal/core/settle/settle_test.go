package settle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsplit/tripsplitd/internal/money"
)

var (
	alice = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	bob   = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	carol = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
)

func balanceSum(balances map[uuid.UUID]money.Cents) money.Cents {
	var sum money.Cents
	for _, b := range balances {
		sum += b
	}
	return sum
}

func TestComputeBalancesDinner(t *testing.T) {
	// Alice fronts a 36.00 dinner split evenly three ways.
	members := []uuid.UUID{alice, bob, carol}
	expenses := []Expense{{PaidBy: alice, Total: 3600}}
	splits := []Split{
		{UserID: alice, Share: 1200},
		{UserID: bob, Share: 1200},
		{UserID: carol, Share: 1200},
	}

	balances := ComputeBalances(members, expenses, splits, nil)

	assert.Equal(t, money.Cents(2400), balances[alice])
	assert.Equal(t, money.Cents(-1200), balances[bob])
	assert.Equal(t, money.Cents(-1200), balances[carol])
	assert.Equal(t, money.Cents(0), balanceSum(balances))
}

func TestComputeBalancesPaymentStatus(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}
	expenses := []Expense{{PaidBy: alice, Total: 3600}}
	splits := []Split{
		{UserID: alice, Share: 1200},
		{UserID: bob, Share: 1200},
		{UserID: carol, Share: 1200},
	}

	// A pending payment changes nothing.
	pending := []Payment{{From: bob, To: alice, Amount: 1200, Confirmed: false}}
	balances := ComputeBalances(members, expenses, splits, pending)
	assert.Equal(t, money.Cents(2400), balances[alice])
	assert.Equal(t, money.Cents(-1200), balances[bob])

	// Once confirmed it clears Bob and reduces what Alice is owed.
	confirmed := []Payment{{From: bob, To: alice, Amount: 1200, Confirmed: true}}
	balances = ComputeBalances(members, expenses, splits, confirmed)
	assert.Equal(t, money.Cents(1200), balances[alice])
	assert.Equal(t, money.Cents(0), balances[bob])
	assert.Equal(t, money.Cents(-1200), balances[carol])
	assert.Equal(t, money.Cents(0), balanceSum(balances))
}

func TestComputeBalancesQuietMember(t *testing.T) {
	members := []uuid.UUID{alice, bob, carol}
	expenses := []Expense{{PaidBy: alice, Total: 1000}}
	splits := []Split{
		{UserID: alice, Share: 500},
		{UserID: bob, Share: 500},
	}

	balances := ComputeBalances(members, expenses, splits, nil)

	require.Contains(t, balances, carol)
	assert.Equal(t, money.Cents(0), balances[carol])
}

func TestPlanSettlementsDinner(t *testing.T) {
	balances := map[uuid.UUID]money.Cents{
		alice: 2400,
		bob:   -1200,
		carol: -1200,
	}

	transfers := PlanSettlements(balances)

	require.Len(t, transfers, 2)
	// Equal debts order by user ID, so Bob pays first.
	assert.Equal(t, Transfer{From: bob, To: alice, Amount: 1200}, transfers[0])
	assert.Equal(t, Transfer{From: carol, To: alice, Amount: 1200}, transfers[1])
}

func TestPlanSettlementsAfterPartialSettle(t *testing.T) {
	balances := map[uuid.UUID]money.Cents{
		alice: 1200,
		bob:   0,
		carol: -1200,
	}

	transfers := PlanSettlements(balances)

	require.Len(t, transfers, 1)
	assert.Equal(t, Transfer{From: carol, To: alice, Amount: 1200}, transfers[0])
}

func TestPlanSettlementsLargestFirst(t *testing.T) {
	balances := map[uuid.UUID]money.Cents{
		alice: 1500,
		bob:   -700,
		carol: -800,
	}

	transfers := PlanSettlements(balances)

	require.Len(t, transfers, 2)
	assert.Equal(t, Transfer{From: carol, To: alice, Amount: 800}, transfers[0])
	assert.Equal(t, Transfer{From: bob, To: alice, Amount: 700}, transfers[1])
}

func TestPlanSettlementsSplitsAcrossCreditors(t *testing.T) {
	dave := uuid.MustParse("00000000-0000-0000-0000-00000000000d")
	balances := map[uuid.UUID]money.Cents{
		alice: 900,
		bob:   600,
		carol: -1000,
		dave:  -500,
	}

	transfers := PlanSettlements(balances)

	require.Len(t, transfers, 3)
	assert.Equal(t, Transfer{From: carol, To: alice, Amount: 900}, transfers[0])
	assert.Equal(t, Transfer{From: carol, To: bob, Amount: 100}, transfers[1])
	assert.Equal(t, Transfer{From: dave, To: bob, Amount: 500}, transfers[2])
}

func TestPlanSettlementsIgnoresSettled(t *testing.T) {
	balances := map[uuid.UUID]money.Cents{
		alice: 0,
		bob:   0,
	}
	assert.Empty(t, PlanSettlements(balances))

	assert.Empty(t, PlanSettlements(map[uuid.UUID]money.Cents{}))
}

func TestPlanSettlementsClearsBalances(t *testing.T) {
	// Applying the plan as confirmed payments must settle everyone, with the
	// transfer count bounded by unsettled users minus one.
	cases := []map[uuid.UUID]money.Cents{
		{alice: 2400, bob: -1200, carol: -1200},
		{alice: 1, bob: -1},
		{alice: 333, bob: 334, carol: -667},
		{alice: 10000, bob: -9999, carol: -1},
	}

	for _, balances := range cases {
		unsettled := 0
		for _, b := range balances {
			if b.Abs() >= money.SettleThreshold {
				unsettled++
			}
		}

		transfers := PlanSettlements(balances)
		assert.LessOrEqual(t, len(transfers), unsettled-1)

		remaining := make(map[uuid.UUID]money.Cents, len(balances))
		for id, b := range balances {
			remaining[id] = b
		}
		for _, tr := range transfers {
			remaining[tr.From] += tr.Amount
			remaining[tr.To] -= tr.Amount
		}
		for id, b := range remaining {
			assert.Less(t, b.Abs(), money.SettleThreshold, "user %s not settled", id)
		}
	}
}

func TestPlanSettlementsDropsUnbalancedSlack(t *testing.T) {
	// An unbalanced input (should not happen for real ledgers) must still
	// terminate and pay out what it can.
	balances := map[uuid.UUID]money.Cents{
		alice: 100,
		bob:   -50,
	}

	transfers := PlanSettlements(balances)

	require.Len(t, transfers, 1)
	assert.Equal(t, Transfer{From: bob, To: alice, Amount: 50}, transfers[0])
}
