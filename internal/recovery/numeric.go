package recovery

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NumberFormat describes how a layout renders decimals.
type NumberFormat struct {
	Thousands string `yaml:"thousands"`
	Decimal   string `yaml:"decimal"`
}

// Brazilian rendering: "1.234,56".
var BrazilianNumbers = NumberFormat{Thousands: ".", Decimal: ","}

// Parse strips the thousands separator and turns the decimal separator into ".".
func (f NumberFormat) Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse decimal: empty value")
	}
	if f.Thousands != "" {
		s = strings.ReplaceAll(s, f.Thousands, "")
	}
	if f.Decimal != "" && f.Decimal != "." {
		s = strings.Replace(s, f.Decimal, ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return v, nil
}

// Format renders v with the given number of decimals. Parse(Format(v, n)) == v rounded to n places.
func (f NumberFormat) Format(v float64, decimals int) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(f.Thousands)
		}
		b.WriteRune(r)
	}
	if decimals > 0 {
		b.WriteString(f.Decimal)
		b.WriteString(frac)
	}
	return b.String()
}

// Pattern returns a regular expression fragment matching a rendered decimal.
func (f NumberFormat) Pattern() string {
	p := `\d+`
	if f.Thousands != "" {
		p += `(?:` + regexp.QuoteMeta(f.Thousands) + `\d{3})*`
	}
	return p + regexp.QuoteMeta(f.Decimal) + `\d{1,3}`
}

var groupedThousands = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+$`)

// ParseLooseNumber reads spreadsheet cells that may be either "1.234,56",
// "1234.56", "1.500" (thousands only) or blank (zero).
func ParseLooseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, nil
	case strings.Contains(s, ","):
		return BrazilianNumbers.Parse(s)
	case groupedThousands.MatchString(s):
		return BrazilianNumbers.Parse(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return v, nil
}
