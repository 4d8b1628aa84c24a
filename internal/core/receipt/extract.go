package receipt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tripsplit/tripsplitd/internal/money"
)

// totalsWindow is how many lines below a label the matching amount may sit.
const totalsWindow = 8

// totals is the extracted money summary plus where the totals block starts,
// which bounds the item region.
type totals struct {
	subtotal money.Cents
	tax      money.Cents
	tip      money.Cents
	total    money.Cents

	hasSubtotal bool
	hasTax      bool
	hasTip      bool
	hasTotal    bool

	firstLabelIdx int // -1 when no totals label was found
}

var (
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDateRe = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})\b`)

	taxLabelRe   = regexp.MustCompile(`(?i)\btax\b`)
	tipLabelRe   = regexp.MustCompile(`(?i)\btip\b|\bgratuity\b`)
	totalLabelRe = regexp.MustCompile(`(?i)\btotal\b|\bamount\s+due\b|\bbalance\s+due\b`)
)

func looksDated(text string) bool {
	return slashDateRe.MatchString(text) || isoDateRe.MatchString(text) ||
		monthDateRe.MatchString(text)
}

// totalsLabel classifies a line as one of the totals labels, or "" for none.
// Subtotal wins over total so "Subtotal" lines never read as the total.
func totalsLabel(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "subtotal") || strings.Contains(lower, "sub total") ||
		strings.Contains(lower, "sub-total"):
		return "subtotal"
	case taxLabelRe.MatchString(text):
		return "tax"
	case tipLabelRe.MatchString(text):
		return "tip"
	case totalLabelRe.MatchString(text):
		return "total"
	default:
		return ""
	}
}

// repairScramble reorders OCR output whose totals block landed among or
// before the items. When a named price line follows the first totals label,
// the labeled lines (with a wrapped amount line, when the amount sits alone
// underneath) move behind the items, order otherwise preserved. Money-only
// lines after a label are wrapped amounts, not items, so a columnar receipt
// with stacked labels above stacked amounts stays put.
func repairScramble(lines []*line) []*line {
	firstLabel := -1
	lastItem := -1
	for i, ln := range lines {
		if ln.junk {
			continue
		}
		if totalsLabel(ln.text) != "" {
			if firstLabel < 0 {
				firstLabel = i
			}
		} else if len(ln.moneys) > 0 && !moneyOnly(ln) {
			lastItem = i
		}
	}
	if firstLabel < 0 || lastItem < firstLabel {
		return lines
	}

	moved := make(map[int]bool)
	for i, ln := range lines {
		if ln.junk || totalsLabel(ln.text) == "" {
			continue
		}
		moved[i] = true
		if len(ln.moneys) == 0 && i+1 < len(lines) && moneyOnly(lines[i+1]) {
			moved[i+1] = true
		}
	}

	kept := make([]*line, 0, len(lines))
	tail := make([]*line, 0, len(moved))
	for i, ln := range lines {
		if moved[i] {
			tail = append(tail, ln)
		} else {
			kept = append(kept, ln)
		}
	}
	return append(kept, tail...)
}

// mergeQuantityLines folds a bare "1" quantity line into the item name line
// the OCR split it from.
func mergeQuantityLines(lines []*line) []*line {
	out := make([]*line, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if !ln.junk && ln.text == "1" && i+1 < len(lines) && !lines[i+1].junk && nameLike(lines[i+1].text) {
			next := lines[i+1]
			out = append(out, &line{
				text:    "1 " + next.text,
				percent: next.percent,
				moneys:  next.moneys,
			})
			i++
			continue
		}
		out = append(out, ln)
	}
	return out
}

// extractMerchant prefers the readable line directly above the address
// block; without an address it takes the first readable non-money line in
// the top window. Returns -1 when nothing qualifies so callers can treat the
// result as a content-start bound either way.
func extractMerchant(lines []*line) (string, int) {
	for i, ln := range lines {
		if !ln.address {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			if name := merchantCandidate(lines[j]); name != "" {
				return name, j
			}
		}
		break
	}

	window := min(5, len(lines))
	for j := 0; j < window; j++ {
		if name := merchantCandidate(lines[j]); name != "" {
			return name, j
		}
	}
	return "", -1
}

func merchantCandidate(ln *line) string {
	if ln.junk || ln.percent || len(ln.moneys) > 0 {
		return ""
	}
	if totalsLabel(ln.text) != "" || looksDated(ln.text) || !nameLike(ln.text) {
		return ""
	}
	return strings.TrimSpace(ln.text)
}

// extractDate finds the transaction date anywhere in the text, junk lines
// included since receipts print the date amid terminal metadata. Returns
// YYYY-MM-DD or "".
func extractDate(lines []*line) string {
	for _, ln := range lines {
		if m := isoDateRe.FindStringSubmatch(ln.text); m != nil {
			if d, ok := buildDate(m[1], m[2], m[3]); ok {
				return d
			}
		}
		if m := slashDateRe.FindStringSubmatch(ln.text); m != nil {
			if d, ok := buildDate(expandYear(m[3]), m[1], m[2]); ok {
				return d
			}
		}
		if m := monthDateRe.FindStringSubmatch(ln.text); m != nil {
			if d, ok := buildDate(m[3], monthNumber(m[1]), m[2]); ok {
				return d
			}
		}
	}
	return ""
}

func expandYear(y string) string {
	if len(y) == 2 {
		return "20" + y
	}
	return y
}

func monthNumber(name string) string {
	months := []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	lower := strings.ToLower(name)
	for i, m := range months {
		if strings.HasPrefix(lower, m) {
			return strconv.Itoa(i + 1)
		}
	}
	return "0"
}

func buildDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 2000 || y > 2099 {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

// extractTotals locates the labeled amounts. A label's amount is on its own
// line or on the nearest following money-only line within the window; each
// wrapped amount pairs with at most one label so stacked label columns read
// correctly. A missing subtotal derives from total - tax - tip; a missing
// total falls back to the largest amount in the tail.
func extractTotals(lines []*line) totals {
	t := totals{firstLabelIdx: -1}
	consumed := make(map[int]bool)

	for i, ln := range lines {
		if ln.junk {
			continue
		}
		label := totalsLabel(ln.text)
		if label == "" {
			continue
		}
		if t.firstLabelIdx < 0 {
			t.firstLabelIdx = i
		}
		amount, ok := labelAmount(lines, i, consumed)
		if !ok {
			continue
		}
		switch label {
		case "subtotal":
			if !t.hasSubtotal {
				t.subtotal, t.hasSubtotal = amount, true
			}
		case "tax":
			if !t.hasTax {
				t.tax, t.hasTax = amount, true
			}
		case "tip":
			if !t.hasTip {
				t.tip, t.hasTip = amount, true
			}
		case "total":
			if !t.hasTotal {
				t.total, t.hasTotal = amount, true
			}
		}
	}

	if !t.hasSubtotal && t.hasTotal {
		if derived := t.total - t.tax - t.tip; derived > 0 {
			t.subtotal, t.hasSubtotal = derived, true
		}
	}
	if !t.hasTotal {
		if tail, ok := tailMaxMoney(lines); ok {
			t.total, t.hasTotal = tail, true
		}
	}
	return t
}

func labelAmount(lines []*line, idx int, consumed map[int]bool) (money.Cents, bool) {
	if ms := lines[idx].moneys; len(ms) > 0 {
		return ms[len(ms)-1], true
	}
	for j := idx + 1; j < len(lines) && j <= idx+totalsWindow; j++ {
		if consumed[j] || !moneyOnly(lines[j]) {
			continue
		}
		consumed[j] = true
		ms := lines[j].moneys
		return ms[len(ms)-1], true
	}
	return 0, false
}

// tailMaxMoney is the last-resort total: the largest amount printed near the
// bottom of the receipt.
func tailMaxMoney(lines []*line) (money.Cents, bool) {
	start := max(0, len(lines)-totalsWindow)
	var best money.Cents
	found := false
	for _, ln := range lines[start:] {
		if ln.junk || ln.percent {
			continue
		}
		for _, m := range ln.moneys {
			if m > best {
				best, found = m, true
			}
		}
	}
	return best, found
}
