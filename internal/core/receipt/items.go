package receipt

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tripsplit/tripsplitd/internal/money"
)

const (
	// maxSubsetCandidates bounds the bitmask subset search.
	maxSubsetCandidates = 18
	// maxSubsetTarget bounds the DP table; receipts past $5000 skip matching.
	maxSubsetTarget = 500000

	nameBackScan    = 6
	nameForwardScan = 2
)

type candidate struct {
	price   money.Cents
	lineIdx int
}

var (
	letterRunRe = regexp.MustCompile(`(?i)[a-z]{2,}`)
	qtyPrefixRe = regexp.MustCompile(`^\d{1,2}\s+`)
)

// extractItems reads line items between the header and the totals block.
// Each priced line contributes its rightmost amount as a candidate; when a
// subtotal is known, the subset of candidates summing to it (within a cent)
// wins, which drops stray amounts like change or cash-tendered lines.
func extractItems(lines []*line, t totals, contentStart int) []Item {
	end := len(lines)
	if t.firstLabelIdx >= 0 {
		end = t.firstLabelIdx
	}
	if contentStart < 0 {
		contentStart = 0
	}

	var cands []candidate
	for i := contentStart; i < end; i++ {
		ln := lines[i]
		if ln.junk || ln.percent || len(ln.moneys) == 0 {
			continue
		}
		cands = append(cands, candidate{price: ln.moneys[len(ln.moneys)-1], lineIdx: i})
	}
	if len(cands) == 0 {
		return nil
	}

	chosen := cands
	if t.hasSubtotal && len(cands) <= maxSubsetCandidates {
		if sub, ok := matchSubtotal(cands, t.subtotal); ok {
			chosen = sub
		}
	}

	used := make(map[int]bool)
	items := make([]Item, 0, len(chosen))
	for _, c := range chosen {
		used[c.lineIdx] = true
	}
	for _, c := range chosen {
		items = append(items, Item{
			Name:  itemName(lines, c.lineIdx, used),
			Price: c.price,
		})
	}
	return items
}

// matchSubtotal finds a candidate subset summing to the target, or one cent
// either side of it. The DP keeps the first (lowest-index) subset reaching
// each sum so results are deterministic.
func matchSubtotal(cands []candidate, target money.Cents) ([]candidate, bool) {
	goal := int(target)
	if goal <= 0 || goal > maxSubsetTarget {
		return nil, false
	}

	dp := make([]int, goal+2)
	for i := range dp {
		dp[i] = -1
	}
	dp[0] = 0
	for i, c := range cands {
		p := int(c.price)
		if p <= 0 || p > goal+1 {
			continue
		}
		for s := goal + 1; s >= p; s-- {
			if dp[s] < 0 && dp[s-p] >= 0 {
				dp[s] = dp[s-p] | (1 << i)
			}
		}
	}

	for _, g := range []int{goal, goal - 1, goal + 1} {
		if g < 0 || g >= len(dp) || dp[g] < 0 {
			continue
		}
		mask := dp[g]
		var sub []candidate
		for i, c := range cands {
			if mask&(1<<i) != 0 {
				sub = append(sub, c)
			}
		}
		return sub, true
	}
	return nil, false
}

// itemName resolves the label for a priced line: text on the line itself,
// then the nearest unclaimed name above, then below, then a placeholder.
func itemName(lines []*line, idx int, used map[int]bool) string {
	if name := inlineName(lines[idx].text); name != "" {
		return name
	}
	for j := idx - 1; j >= 0 && j >= idx-nameBackScan; j-- {
		if name := claimName(lines, j, used); name != "" {
			return name
		}
	}
	for j := idx + 1; j < len(lines) && j <= idx+nameForwardScan; j++ {
		if name := claimName(lines, j, used); name != "" {
			return name
		}
	}
	return "Item"
}

func claimName(lines []*line, j int, used map[int]bool) string {
	ln := lines[j]
	if used[j] || ln.junk || ln.percent || len(ln.moneys) > 0 {
		return ""
	}
	if totalsLabel(ln.text) != "" || looksDated(ln.text) {
		return ""
	}
	name := cleanName(ln.text)
	if name == "" || !nameLike(name) {
		return ""
	}
	used[j] = true
	return name
}

func inlineName(text string) string {
	residue := moneyTokenRe.ReplaceAllString(text, " ")
	residue = bareAmountEndRe.ReplaceAllString(residue, " ")
	name := cleanName(residue)
	if name == "" || !nameLike(name) {
		return ""
	}
	return name
}

func cleanName(text string) string {
	name := strings.TrimSpace(text)
	name = strings.Trim(name, " .:-*#@")
	name = qtyPrefixRe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// nameLike accepts short mostly-alphabetic text.
func nameLike(text string) bool {
	if text == "" || len(text) > 60 {
		return false
	}
	if !letterRunRe.MatchString(text) {
		return false
	}
	letters, digits := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters >= digits
}
