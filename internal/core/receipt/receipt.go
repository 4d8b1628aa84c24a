// Package receipt turns raw OCR text from a photographed receipt into a
// structured itemization: merchant, date, line items, and the totals block.
//
// The pipeline is deliberately tolerant. OCR output arrives with glyph
// confusions, scrambled ordering, and junk lines, so every stage is a
// best-effort heuristic and Parse never fails. Problems surface through the
// warnings list and the confidence score instead. An optional Verifier can
// review the rules result over the network; its failures are swallowed and
// the rules result stands.
package receipt

import (
	"context"
	"fmt"
	"math"

	"github.com/tripsplit/tripsplitd/internal/money"
)

// Source values reported on a parse result.
const (
	SourceRules    = "rules"
	SourceVerifier = "llm"
)

// reconcileTolerance is how far the totals may disagree before the parser
// flags a warning.
const reconcileTolerance = money.Cents(5)

// Item is one extracted receipt line.
type Item struct {
	Name  string      `json:"name"`
	Price money.Cents `json:"price"`
}

// Parsed is the structured read of a receipt. All amounts are best-effort
// and non-negative; the client reviews and resubmits them as an itemized
// expense, so nothing here is persisted.
type Parsed struct {
	MerchantName    string      `json:"merchantName"`
	TransactionDate string      `json:"transactionDate,omitempty"`
	Items           []Item      `json:"items"`
	Subtotal        money.Cents `json:"subtotal"`
	Tax             money.Cents `json:"tax"`
	Tip             money.Cents `json:"tip"`
	Total           money.Cents `json:"total"`
	Warnings        []string    `json:"warnings"`
	Confidence      float64     `json:"confidence"`
	Source          string      `json:"source"`
}

// Parser runs the extraction pipeline. The zero value works; NewParser adds
// options like an external verifier.
type Parser struct {
	verifier Verifier
}

// Option configures a Parser.
type Option func(*Parser)

// WithVerifier wires an external verifier into the pipeline.
func WithVerifier(v Verifier) Option {
	return func(p *Parser) { p.verifier = v }
}

// NewParser builds a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts a structured receipt from raw OCR text. It never returns an
// error: malformed input degrades to empty fields, lower confidence, and
// warnings. The context bounds only the optional verifier call.
func (p *Parser) Parse(ctx context.Context, rawText string) *Parsed {
	lines := parseLines(rawText)
	classifyJunk(lines)
	lines = repairScramble(lines)
	lines = mergeQuantityLines(lines)

	merchant, merchantIdx := extractMerchant(lines)
	date := extractDate(lines)
	t := extractTotals(lines)
	items := extractItems(lines, t, merchantIdx+1)
	if items == nil {
		items = []Item{}
	}

	result := &Parsed{
		MerchantName:    merchant,
		TransactionDate: date,
		Items:           items,
		Subtotal:        t.subtotal,
		Tax:             t.tax,
		Tip:             t.tip,
		Total:           t.total,
		Warnings:        buildWarnings(t, items),
		Confidence:      scoreConfidence(merchant, date, t, items),
		Source:          SourceRules,
	}

	if p.verifier != nil {
		if verified, err := p.verifier.Verify(ctx, rawText, result); err == nil && verified != nil {
			verified.Source = SourceVerifier
			return verified
		}
		// Verifier failures never fail the parse.
	}

	return result
}

// Confidence weights. A receipt missing its merchant header or date can
// still score high when the money structure checks out.
const (
	confMerchant  = 0.05
	confDate      = 0.05
	confTotal     = 0.25
	confSubtotal  = 0.20
	confTax       = 0.10
	confItems     = 0.20
	confAgreement = 0.15
)

func scoreConfidence(merchant, date string, t totals, items []Item) float64 {
	score := 0.0
	if merchant != "" {
		score += confMerchant
	}
	if date != "" {
		score += confDate
	}
	if t.hasTotal {
		score += confTotal
	}
	if t.hasSubtotal {
		score += confSubtotal
	}
	if t.hasTax {
		score += confTax
	}
	if len(items) > 0 {
		score += confItems
	}
	if agreementHolds(t, items) {
		score += confAgreement
	}
	return math.Round(score*100) / 100
}

// agreementHolds reports whether the extracted numbers reconcile: items sum
// to the subtotal and the totals identity holds, each within one cent.
func agreementHolds(t totals, items []Item) bool {
	if !t.hasSubtotal || len(items) == 0 {
		return false
	}
	if (itemSum(items) - t.subtotal).Abs() > 1 {
		return false
	}
	if t.hasTotal && (t.subtotal+t.tax+t.tip-t.total).Abs() > 1 {
		return false
	}
	return true
}

func buildWarnings(t totals, items []Item) []string {
	warnings := make([]string, 0, 2)
	if len(items) == 0 {
		warnings = append(warnings, "no items detected")
	}
	if t.hasTotal {
		if diff := (t.subtotal + t.tax + t.tip - t.total).Abs(); diff > reconcileTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"totals do not reconcile: subtotal %s + tax %s + tip %s vs total %s",
				t.subtotal, t.tax, t.tip, t.total))
		}
	}
	if t.hasSubtotal && len(items) > 0 {
		if diff := (itemSum(items) - t.subtotal).Abs(); diff > reconcileTolerance {
			warnings = append(warnings, fmt.Sprintf(
				"item prices sum to %s but subtotal reads %s", itemSum(items), t.subtotal))
		}
	}
	return warnings
}

func itemSum(items []Item) money.Cents {
	var sum money.Cents
	for _, it := range items {
		sum += it.Price
	}
	return sum
}
