package document

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Text extraction from the PDF binary happens upstream; this parser only
// pulls payment fields out of the extracted text. The patterns target the
// German statement layout: decimal-comma amounts after "Betrag" and
// DD.MM.YYYY dates after "Datum".
var (
	amountPattern = regexp.MustCompile(`(?m)Betrag\s+(-?[\d.]+,\d{2})`)
	datePattern   = regexp.MustCompile(`(?m)Datum\s+(\d{2}\.\d{2}\.\d{4})`)
)

// Parsed holds the fields recovered from one document's text.
type Parsed struct {
	Subject string
	Amount  *decimal.Decimal
	Date    *time.Time
}

// Parse extracts subject, amount and date from statement text. Fields the
// patterns cannot find are left nil; only fully empty text is an error.
func Parse(text string) (*Parsed, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	p := &Parsed{Subject: firstLine(text)}

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if amount, err := decimal.NewFromString(germanToDecimal(m[1])); err == nil {
			p.Amount = &amount
		}
	}

	if m := datePattern.FindStringSubmatch(text); m != nil {
		if date, err := time.Parse("02.01.2006", m[1]); err == nil {
			p.Date = &date
		}
	}

	return p, nil
}

// germanToDecimal turns "1.234,56" into "1234.56".
func germanToDecimal(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", ".")
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}
