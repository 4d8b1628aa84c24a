// Package expense computes per-user shares for trip expenses. It accepts two
// payload shapes: a simple split, where the client supplies the shares, and an
// itemized receipt, where shares are derived from item assignments with tax
// and tip allocated proportionally over per-user item subtotals.
//
// The package is pure computation. Membership checks and persistence belong
// to the caller; every computation it returns conserves the total exactly in
// cents.
package expense

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tripsplit/tripsplitd/internal/money"
)

// Validation errors returned by the compute functions.
var (
	ErrTitleRequired     = errors.New("expense title is required")
	ErrAmountNotPositive = errors.New("expense amount must be positive")
	ErrAmountTooLarge    = errors.New("amount exceeds the supported maximum")
	ErrNoSplits          = errors.New("at least one split is required")
	ErrShareNotPositive  = errors.New("split share must be positive")
	ErrDuplicateUser     = errors.New("user listed twice")
	ErrSplitMismatch     = errors.New("split total does not match expense amount")
	ErrNoItems           = errors.New("at least one item is required")
	ErrItemNameRequired  = errors.New("item name is required")
	ErrPriceNotPositive  = errors.New("item price must be positive")
	ErrNoAssignees       = errors.New("item has no assignees")
	ErrNegativeTax       = errors.New("tax cannot be negative")
	ErrNegativeTip       = errors.New("tip value cannot be negative")
	ErrInvalidTipType    = errors.New("tip type must be percent or amount")
)

// splitTolerance is the accepted drift between a client-computed split total
// and the expense amount. Client apps compute shares in floating point, so a
// single cent of rounding drift is normal.
const splitTolerance = money.Cents(1)

// Tip types accepted on itemized expenses.
const (
	TipTypePercent = "percent"
	TipTypeAmount  = "amount"
)

// SplitInput is one client-supplied share of a simple expense.
type SplitInput struct {
	UserID uuid.UUID
	Share  money.Cents
}

// SimpleInput is an expense whose shares the client computed itself.
type SimpleInput struct {
	Title  string
	Amount money.Cents
	Splits []SplitInput
}

// ItemInput is one receipt line with the users sharing it, in the order the
// client listed them. Order matters: leftover cents from an uneven item split
// go to the earliest assignees.
type ItemInput struct {
	Name      string
	Price     money.Cents
	Assignees []uuid.UUID
}

// TipInput is an optional tip, either a percentage of the subtotal or a flat
// amount in display units. The zero value means no tip.
type TipInput struct {
	Type  string
	Value float64
}

// ItemizedInput is a receipt-shaped expense: items with assignees plus tax
// and tip spread proportionally.
type ItemizedInput struct {
	Title string
	Items []ItemInput
	Tax   money.Cents
	Tip   TipInput
}

// Share is one user's final share of an expense.
type Share struct {
	UserID uuid.UUID
	Amount money.Cents
}

// Computation is the result of computing an expense: the amounts to persist
// on the expense row and the per-user splits. Shares are ordered by first
// appearance in the input and always sum to exactly Total.
type Computation struct {
	Subtotal money.Cents
	Tax      money.Cents
	Tip      money.Cents
	Total    money.Cents
	Shares   []Share
}

// ComputeSimple validates a client-computed split and normalizes it so the
// stored shares sum to the amount exactly. Subtotal mirrors the amount and
// tax and tip stay zero, keeping total = subtotal + tax + tip true for every
// expense regardless of shape.
func ComputeSimple(in SimpleInput) (*Computation, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	if in.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if in.Amount > money.MaxAmount {
		return nil, ErrAmountTooLarge
	}
	if len(in.Splits) == 0 {
		return nil, ErrNoSplits
	}

	seen := make(map[uuid.UUID]struct{}, len(in.Splits))
	shares := make([]Share, 0, len(in.Splits))
	var sum money.Cents
	for _, s := range in.Splits {
		if s.Share <= 0 {
			return nil, ErrShareNotPositive
		}
		if _, dup := seen[s.UserID]; dup {
			return nil, fmt.Errorf("%w in splits: %s", ErrDuplicateUser, s.UserID)
		}
		seen[s.UserID] = struct{}{}
		sum += s.Share
		shares = append(shares, Share{UserID: s.UserID, Amount: s.Share})
	}

	if (sum - in.Amount).Abs() > splitTolerance {
		return nil, fmt.Errorf("%w: splits sum to %s, amount is %s", ErrSplitMismatch, sum, in.Amount)
	}
	// Absorb the tolerated drift into the largest share so stored splits sum
	// to the total exactly.
	if delta := in.Amount - sum; delta != 0 {
		largest := 0
		for i := 1; i < len(shares); i++ {
			if shares[i].Amount > shares[largest].Amount {
				largest = i
			}
		}
		shares[largest].Amount += delta
	}

	return &Computation{
		Subtotal: in.Amount,
		Total:    in.Amount,
		Shares:   shares,
	}, nil
}

// ComputeItemized derives per-user shares from item assignments. Each item's
// price is split evenly across its assignees, then tax and tip are allocated
// proportionally over the per-user item subtotals.
func ComputeItemized(in ItemizedInput) (*Computation, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	if in.Tax < 0 {
		return nil, ErrNegativeTax
	}
	if in.Tax > money.MaxAmount {
		return nil, ErrAmountTooLarge
	}

	// Per-user item subtotals, ordered by first appearance across items.
	order := make([]uuid.UUID, 0, 8)
	itemTotals := make(map[uuid.UUID]money.Cents)

	var subtotal money.Cents
	for _, item := range in.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, ErrItemNameRequired
		}
		if item.Price <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrPriceNotPositive, item.Name)
		}
		if len(item.Assignees) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoAssignees, item.Name)
		}
		assigned := make(map[uuid.UUID]struct{}, len(item.Assignees))
		for _, userID := range item.Assignees {
			if _, dup := assigned[userID]; dup {
				return nil, fmt.Errorf("%w on item %q: %s", ErrDuplicateUser, item.Name, userID)
			}
			assigned[userID] = struct{}{}
		}

		subtotal += item.Price
		if subtotal > money.MaxAmount {
			return nil, ErrAmountTooLarge
		}
		portions := money.SplitEven(len(item.Assignees), item.Price)
		for i, userID := range item.Assignees {
			if _, ok := itemTotals[userID]; !ok {
				order = append(order, userID)
			}
			itemTotals[userID] += portions[i]
		}
	}

	tip, err := tipCents(in.Tip, subtotal)
	if err != nil {
		return nil, err
	}
	if tip > money.MaxAmount {
		return nil, ErrAmountTooLarge
	}

	weights := make([]money.Weight, len(order))
	for i, userID := range order {
		weights[i] = money.Weight{UserID: userID, Amount: itemTotals[userID]}
	}
	taxAlloc := money.Allocate(weights, in.Tax)
	tipAlloc := money.Allocate(weights, tip)

	total := subtotal + in.Tax + tip

	shares := make([]Share, len(order))
	var sum money.Cents
	for i, userID := range order {
		amount := itemTotals[userID] + taxAlloc[userID] + tipAlloc[userID]
		shares[i] = Share{UserID: userID, Amount: amount}
		sum += amount
	}

	// Integer allocation conserves the pools, so any residue here means a
	// rounding slip upstream. Pin it on the user with the largest item
	// subtotal rather than losing a cent.
	if delta := total - sum; delta != 0 {
		largest := 0
		for i := 1; i < len(shares); i++ {
			if itemTotals[shares[i].UserID] > itemTotals[shares[largest].UserID] {
				largest = i
			}
		}
		shares[largest].Amount += delta
	}

	return &Computation{
		Subtotal: subtotal,
		Tax:      in.Tax,
		Tip:      tip,
		Total:    total,
		Shares:   shares,
	}, nil
}

// tipCents resolves a tip input against the subtotal. Percent tips are
// computed in display units and rounded half-up, matching how receipts print
// suggested tips.
func tipCents(tip TipInput, subtotal money.Cents) (money.Cents, error) {
	switch tip.Type {
	case "":
		if tip.Value != 0 {
			return 0, ErrInvalidTipType
		}
		return 0, nil
	case TipTypeAmount:
		if tip.Value < 0 {
			return 0, ErrNegativeTip
		}
		return money.FromFloat(tip.Value), nil
	case TipTypePercent:
		if tip.Value < 0 {
			return 0, ErrNegativeTip
		}
		return money.FromFloat(tip.Value * subtotal.Float() / 100), nil
	default:
		return 0, fmt.Errorf("%w, got %q", ErrInvalidTipType, tip.Type)
	}
}
