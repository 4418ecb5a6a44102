package recovery

import (
	"delivery-manifest-service/internal/domain"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// RecoverDeliveries scans the text for line items in encounter order.
// It also returns invoice-like tokens that no line item consumed.
//
// Every line item is matched inside its own segment, running from its invoice
// anchor to the next one, so a broken line never borrows fields from its
// neighbour.
func (p *Profile) RecoverDeliveries(text string) ([]domain.CandidateDelivery, []string, error) {
	segments := p.segments(text)

	var (
		out     = make([]domain.CandidateDelivery, 0, len(segments))
		matches = make([][]int, 0, len(segments))
	)
	for _, seg := range segments {
		m := p.items.FindStringSubmatchIndex(text[seg.start:seg.end])
		if m == nil || seg.start+m[2*groupInvoice] != seg.invoice {
			continue
		}
		for i := range m {
			if m[i] >= 0 {
				m[i] += seg.start
			}
		}
		matches = append(matches, m)

		group := func(i int) string {
			if m[2*i] < 0 {
				return ""
			}
			return strings.TrimSpace(text[m[2*i]:m[2*i+1]])
		}

		qty, err := p.Number.Parse(group(groupQuantity))
		if err != nil {
			return nil, nil, fmt.Errorf("recover deliveries: invoice %s: %w", group(groupInvoice), err)
		}

		city := strings.ToUpper(group(groupCity))
		name, address := SplitClientBlock(group(groupClient), p.ClientBreak)

		out = append(out, domain.CandidateDelivery{
			InvoiceNumber:       group(groupInvoice),
			CustomerName:        name,
			CustomerAddressText: address + " - " + city,
			City:                city,
			Volume:              qty,
			Priority:            domain.PriorityNormal,
			Product:             collapseSpaces(group(groupProduct)),
			SalespersonName:     collapseSpaces(group(groupSalesperson)),
		})
	}

	return out, p.unmatchedInvoices(text, matches), nil
}

type segment struct {
	start, end int
	// Offset of the anchoring invoice number.
	invoice int
}

func (p *Profile) segments(text string) []segment {
	idx := p.anchor.SubexpIndex("invoice")

	var out []segment
	for _, m := range p.anchor.FindAllStringSubmatchIndex(text, -1) {
		if p.anchorTail != nil && !p.anchorTail.MatchString(text[m[1]:]) {
			continue
		}
		if n := len(out); n > 0 {
			out[n-1].end = m[0]
		}
		out = append(out, segment{start: m[0], end: len(text), invoice: m[2*idx]})
	}
	return out
}

func (p *Profile) unmatchedInvoices(text string, matches [][]int) []string {
	var out []string
	for _, loc := range p.invoice.FindAllStringIndex(text, -1) {
		covered := false
		for _, m := range matches {
			if loc[0] >= m[0] && loc[1] <= m[1] {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, text[loc[0]:loc[1]])
		}
	}
	return out
}

// SplitClientBlock separates a client block into customer name and address.
// The block is split on the layout's break marker, else on the first comma;
// with neither, the whole block serves as both.
func SplitClientBlock(block, brk string) (name, address string) {
	block = strings.TrimSpace(block)

	if brk != "" && strings.Contains(block, brk) {
		parts := strings.Split(block, brk)
		name = collapseSpaces(parts[0])
		rest := make([]string, 0, len(parts)-1)
		for _, part := range parts[1:] {
			if s := collapseSpaces(part); s != "" {
				rest = append(rest, s)
			}
		}
		address = strings.Join(rest, " ")
	} else if before, after, ok := strings.Cut(block, ","); ok {
		name = collapseSpaces(before)
		address = collapseSpaces(after)
	} else {
		name = collapseSpaces(block)
		address = name
	}

	if address == "" {
		address = name
	}
	return name, address
}

// RecoverHeader runs the labeled header searches. Each field is optional;
// a missing or unreadable date falls back to now.
func (p *Profile) RecoverHeader(text string, now time.Time) domain.RouteHeader {
	folded := domain.FoldAccents(text)

	driver := p.cutAtLabels(p.find(p.driver, folded))
	plate := strings.ToUpper(p.cutAtLabels(p.find(p.vehicle, folded)))
	plate = strings.Trim(plate, "-")

	date := now
	if raw := p.find(p.date, folded); raw != "" {
		if t, ok := parseDate(raw, p.DateLayouts); ok {
			date = t
		}
	}

	return domain.RouteHeader{
		Name:             domain.SynthesizeRouteName(plate, driver, date),
		Date:             date,
		DriverIdentifier: driver,
		VehiclePlate:     plate,
	}
}

func (p *Profile) find(re *regexp.Regexp, text string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return collapseSpaces(m[1])
}

// cutAtLabels truncates a capture that ran into the next header label,
// which happens when tokens are joined without a separator.
func (p *Profile) cutAtLabels(s string) string {
	for i := range s {
		for _, stem := range p.labelStems {
			if hasPrefixFold(s[i:], stem) {
				return strings.TrimSpace(s[:i])
			}
		}
	}
	return strings.TrimSpace(s)
}

func hasPrefixFold(s, prefix string) bool {
	end := 0
	for range utf8.RuneCountInString(prefix) {
		if end >= len(s) {
			return false
		}
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return strings.EqualFold(s[:end], prefix)
}

func parseDate(raw string, layouts []string) (time.Time, bool) {
	candidates := []string{raw}
	if fields := strings.Fields(raw); len(fields) > 1 {
		candidates = append(candidates, fields[0])
	}

	for _, c := range candidates {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
