package recovery

import (
	"delivery-manifest-service/internal/domain"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Profile is a LayoutProfile with its patterns compiled.
type Profile struct {
	LayoutProfile

	items   *regexp.Regexp
	invoice *regexp.Regexp
	// Start of a line item: an invoice standing alone in its field.
	anchor     *regexp.Regexp
	anchorTail *regexp.Regexp
	driver     *regexp.Regexp
	vehicle    *regexp.Regexp
	date       *regexp.Regexp
	// First word of every header label, folded; used to cut runaway captures.
	labelStems []string
}

// Item pattern submatch indexes, shared by both grammars.
const (
	groupInvoice = iota + 1
	groupClient
	groupCity
	groupSalesperson
	groupProduct
	groupQuantity
)

func Compile(lp LayoutProfile) (*Profile, error) {
	if err := lp.Validate(); err != nil {
		return nil, err
	}

	p := &Profile{LayoutProfile: lp}

	var err error
	if p.items, err = regexp.Compile(itemPattern(lp)); err != nil {
		return nil, fmt.Errorf("layout profile %q: compile line item pattern: %w", lp.Name, err)
	}
	if p.invoice, err = regexp.Compile(`\b(?:` + lp.InvoicePattern + `)\b`); err != nil {
		return nil, fmt.Errorf("layout profile %q: compile invoice pattern: %w", lp.Name, err)
	}

	if p.anchor, p.anchorTail, err = anchorPatterns(lp); err != nil {
		return nil, fmt.Errorf("layout profile %q: compile invoice anchor: %w", lp.Name, err)
	}

	p.driver = labelPattern(lp.Labels.Driver, `([\p{L} ]+)`)
	p.vehicle = labelPattern(lp.Labels.Vehicle, `([\p{L}\p{N}-]+)`)
	p.date = labelPattern(lp.Labels.Date, `(\d[\d/.\-: ]*\d)`)

	for _, l := range []string{lp.Labels.Driver, lp.Labels.Vehicle, lp.Labels.Date} {
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(domain.FoldAccents(l)), ":"))
		if len(fields) > 0 {
			p.labelStems = append(p.labelStems, strings.ToUpper(fields[0]))
		}
	}

	return p, nil
}

func labelPattern(label, capture string) *regexp.Regexp {
	label = strings.TrimSpace(domain.FoldAccents(label))
	if label == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*` + capture)
}

func alternation(words []string, quote bool) string {
	sorted := append([]string(nil), words...)
	// Longest first so "CRATEUS" is not cut short by "CRATO"-like prefixes.
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	parts := make([]string, 0, len(sorted))
	for _, w := range sorted {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if quote {
			w = regexp.QuoteMeta(w)
		}
		parts = append(parts, w)
	}
	return strings.Join(parts, "|")
}

// anchorPatterns returns the pattern locating invoice fields and, for the
// delimited grammar, the separator that must follow one. The tail is checked
// apart so adjacent anchors can share a separator.
func anchorPatterns(lp LayoutProfile) (*regexp.Regexp, *regexp.Regexp, error) {
	invoice := `(?P<invoice>` + lp.InvoicePattern + `)`

	if lp.Grammar == GrammarQuoted {
		anchor, err := regexp.Compile(`"\s*` + invoice + `\s*"\s*,`)
		return anchor, nil, err
	}

	sep := `\s*` + regexp.QuoteMeta(strings.TrimSpace(lp.Separator)) + `\s*`
	anchor, err := regexp.Compile(`(?:^|` + sep + `)` + invoice)
	if err != nil {
		return nil, nil, err
	}
	tail, err := regexp.Compile(`^` + sep)
	return anchor, tail, err
}

func itemPattern(lp LayoutProfile) string {
	invoice := `(` + lp.InvoicePattern + `)`
	cities := `(` + alternation(lp.Cities, true) + `)`
	products := `(?:` + alternation(lp.Products, false) + `)`
	qty := `(` + lp.Number.Pattern() + `)`

	if lp.Grammar == GrammarQuoted {
		sep := `"\s*,\s*"`
		return `(?s)"\s*` + invoice + `\s*` + sep +
			`([^"]*)` + sep +
			`\s*` + cities + `\s*` + sep +
			`([^"]*)` + sep +
			`\s*(` + products + `[^"]*)"` +
			`.*?"\s*` + qty + `\s*"`
	}

	marker := strings.TrimSpace(lp.Separator)
	sep := `\s*` + regexp.QuoteMeta(marker) + `\s*`
	notSep := `.`
	if len([]rune(marker)) == 1 {
		notSep = `[^` + regexp.QuoteMeta(marker) + `]`
	}

	return `(?s)\b` + invoice + `\b` + sep +
		`(.+?)` + sep +
		cities + sep +
		`(.+?)` + sep +
		`(` + products + notSep + `*?)` +
		`(?:` + sep + `.*?|\s+)\b` + qty + `\b`
}
