package receipt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tripsplit/tripsplitd/internal/money"
)

// line is one OCR line carried through the pipeline with everything later
// stages need to know about it.
type line struct {
	text    string
	percent bool          // bears a percentage; never a money source
	junk    bool          // excluded from extraction
	address bool          // looked like a street address; anchors the merchant
	moneys  []money.Cents // money tokens in order of appearance
}

var (
	commaThousandsRe = regexp.MustCompile(`(\d),(\d{3})`)
	salesTaxRe       = regexp.MustCompile(`(?i)\bsales\s+[1iIl|]+ax\b`)
	leadingSRe       = regexp.MustCompile(`(^|\s)S(\d)`)
	dollarGlyphRe    = regexp.MustCompile(`\$[0-9Oo]+(?:\.[0-9Oo]{2})?`)
	spaceCentsDlrRe  = regexp.MustCompile(`\$(\d+) (\d{2})\b`)
	spaceCentsEndRe  = regexp.MustCompile(`(\d+) (\d{2})$`)
	percentRe        = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)
	monthNameRe      = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	moneyTokenRe     = regexp.MustCompile(`\$\d+(?:\.\d{2})?|\b\d+\.\d{2}\b`)
	bareAmountEndRe  = regexp.MustCompile(`(?:^|\s)(\d{3,6})$`)
)

// normalizeLine applies the OCR confusion fixes that are safe to make blind:
// whitespace collapse, comma thousands, the classic S-for-$ and O-for-0
// glyph swaps, a lost decimal point between dollars and cents, and the
// garbled "Sales Tax" label.
func normalizeLine(raw string) string {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return ""
	}

	text = commaThousandsRe.ReplaceAllString(text, "$1$2")
	text = salesTaxRe.ReplaceAllString(text, "Sales Tax")
	text = leadingSRe.ReplaceAllString(text, "${1}$$${2}")
	text = dollarGlyphRe.ReplaceAllStringFunc(text, func(tok string) string {
		tok = strings.ReplaceAll(tok, "O", "0")
		return strings.ReplaceAll(tok, "o", "0")
	})
	// Merging "14 69" into "14.69" would mangle written-out dates, so
	// month-bearing lines keep their spacing.
	if !monthNameRe.MatchString(text) {
		text = spaceCentsDlrRe.ReplaceAllString(text, "$$$1.$2")
		text = spaceCentsEndRe.ReplaceAllString(text, "$1.$2")
	}
	return text
}

// parseLines normalizes the raw OCR text into the pipeline's working form,
// dropping blank lines and pre-parsing money tokens. Lines carrying a
// percentage are never money sources; tax-rate lines like "Tax 8.875%" would
// otherwise read as amounts.
func parseLines(rawText string) []*line {
	var lines []*line
	for _, raw := range strings.Split(rawText, "\n") {
		text := normalizeLine(raw)
		if text == "" {
			continue
		}
		ln := &line{text: text, percent: percentRe.MatchString(text)}
		if !ln.percent {
			ln.moneys = moneyTokens(text)
		}
		lines = append(lines, ln)
	}
	return lines
}

// moneyTokens parses every money-looking token on a normalized line. Bare
// digit runs only count on lines with no date in them, and only in trailing
// position where receipts print prices.
func moneyTokens(text string) []money.Cents {
	var out []money.Cents
	for _, tok := range moneyTokenRe.FindAllString(text, -1) {
		if c, ok := parseMoneyToken(tok); ok {
			out = append(out, c)
		}
	}
	if out == nil && !looksDated(text) {
		if m := bareAmountEndRe.FindStringSubmatch(text); m != nil {
			if c, ok := centsFromBareDigits(m[1]); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func parseMoneyToken(tok string) (money.Cents, bool) {
	digits := strings.TrimPrefix(tok, "$")
	if strings.Contains(digits, ".") {
		c, err := money.Parse(digits)
		if err != nil || c <= 0 || c >= 10000000 {
			return 0, false
		}
		return c, true
	}
	// Dollar-prefixed with no decimal: one or two digits read as whole
	// dollars ("Tip: $5"); longer runs hide the cents in the last two.
	if len(digits) <= 2 {
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return money.Cents(n) * money.CentsPerUnit, true
	}
	return centsFromBareDigits(digits)
}

// centsFromBareDigits reads a 3-6 digit run with the last two digits as
// cents, accepted only when the value lands in [0.50, 1000.00). Outside that
// band the run is more likely an ID or a year than a price.
func centsFromBareDigits(digits string) (money.Cents, bool) {
	if len(digits) < 3 || len(digits) > 6 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	c := money.Cents(n)
	if c < 50 || c >= 100000 {
		return 0, false
	}
	return c, true
}

// Junk patterns: metadata a receipt carries that is never an item, a total,
// or a merchant name.
var (
	phoneRe   = regexp.MustCompile(`\(?\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`)
	addressRe = regexp.MustCompile(`(?i)^\d+\s+\S+.*\b(street|st|ave|avenue|blvd|boulevard|road|rd|drive|dr|lane|ln|way|suite|ste|hwy|highway|plaza|pkwy)\.?\b`)
	zipRe     = regexp.MustCompile(`\b[A-Z]{2},?\s+\d{5}(?:-\d{4})?\b`)
	longIDRe  = regexp.MustCompile(`\d{7,}`)
	qtyOnlyRe = regexp.MustCompile(`(?i)^(?:qty|quantity)\b|^\d+\s*[x@]\s*$`)
)

var cardKeywords = []string{
	"visa", "mastercard", "amex", "discover", "debit", "credit card",
	"card #", "xxxx", "****", "approval", "auth code", "chip", "terminal",
	"merchant id", "batch", "ref #", "entry method", "aid:", "cash", "change",
	"tender", "payment method",
}

var promoKeywords = []string{
	"survey", "feedback", "www.", "http", ".com", "tell us", "thank you",
	"come again", "rewards", "coupon", "visit us", "follow us",
}

// classifyJunk flags address, phone, card/terminal, promo, quantity-marker,
// and long-ID lines. Address lines keep a separate flag because the merchant
// name usually sits directly above them.
func classifyJunk(lines []*line) {
	for _, ln := range lines {
		lower := strings.ToLower(ln.text)
		switch {
		case addressRe.MatchString(ln.text) || zipRe.MatchString(ln.text):
			ln.address = true
			ln.junk = true
		case phoneRe.MatchString(ln.text):
			ln.junk = true
		case containsAny(lower, cardKeywords):
			ln.junk = true
		case containsAny(lower, promoKeywords):
			ln.junk = true
		case qtyOnlyRe.MatchString(ln.text):
			ln.junk = true
		case longIDRe.MatchString(ln.text) && len(ln.moneys) == 0:
			ln.junk = true
		}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// moneyOnly reports whether a line is nothing but an amount, the shape
// receipts use when a label's value wrapped onto the next line.
func moneyOnly(ln *line) bool {
	if ln.junk || ln.percent || len(ln.moneys) == 0 {
		return false
	}
	residue := moneyTokenRe.ReplaceAllString(ln.text, "")
	for _, r := range residue {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
