package recovery

import (
	"delivery-manifest-service/internal/extract"
	"fmt"
	"strings"
)

// Grammar selects how line-item fields are delimited in the extracted text.
type Grammar string

const (
	// Fields separated by the extractor's join marker (whitespace-column layouts).
	GrammarDelimited Grammar = "delimited"
	// Fields rendered as quoted, comma-separated tokens ("a","b",...).
	GrammarQuoted Grammar = "quoted"
)

type Labels struct {
	Driver  string `yaml:"driver"`
	Vehicle string `yaml:"vehicle"`
	Date    string `yaml:"date"`
}

// LayoutProfile is the data description of one manifest rendering variant.
// New variants are added as configuration, not code.
type LayoutProfile struct {
	Name    string  `yaml:"name"`
	Grammar Grammar `yaml:"grammar"`
	// Join string the extractor must use for this layout.
	Separator string `yaml:"separator"`
	// Join string between rendered rows; empty means Separator.
	RowBreak string `yaml:"rowBreak"`
	// Marker splitting a client block into name and address.
	ClientBreak    string       `yaml:"clientBreak"`
	Labels         Labels       `yaml:"labels"`
	DateLayouts    []string     `yaml:"dateLayouts"`
	InvoicePattern string       `yaml:"invoicePattern"`
	Cities         []string     `yaml:"cities"`
	Products       []string     `yaml:"products"`
	Number         NumberFormat `yaml:"number"`
	// Words whose joint presence means the document is a manifest of this family.
	Markers []string `yaml:"markers"`
}

const (
	ProfileWhitespaceJoined = "whitespace-joined"
	ProfileQuotedCSV        = "quoted-csv"
)

// Destination municipalities served from the Fortaleza depot. Closed list:
// a city outside it ends a line item match.
var DefaultCities = []string{
	"FORTALEZA", "CAUCAIA", "MARACANAU", "MARACANAÚ", "EUSEBIO", "EUSÉBIO",
	"AQUIRAZ", "PACATUBA", "MARANGUAPE", "HORIZONTE", "PACAJUS", "ITAITINGA",
	"CASCAVEL", "PINDORETAMA", "CHOROZINHO", "GUAIUBA", "GUAIÚBA",
	"SAO GONCALO DO AMARANTE", "SÃO GONÇALO DO AMARANTE", "SAO LUIS DO CURU",
	"SÃO LUÍS DO CURU", "PARACURU", "PARAIPABA", "TRAIRI", "ITAPIPOCA",
	"PENTECOSTE", "CANINDE", "CANINDÉ", "BATURITE", "BATURITÉ", "REDENCAO",
	"REDENÇÃO", "ACARAPE", "BEBERIBE", "ARACATI", "RUSSAS", "LIMOEIRO DO NORTE",
	"QUIXADA", "QUIXADÁ", "QUIXERAMOBIM", "SOBRAL", "CRATEUS", "CRATEÚS",
	"JUAZEIRO DO NORTE", "CRATO", "IGUATU", "TIANGUA", "TIANGUÁ",
}

// Fuel product stems, as regular expression fragments.
var DefaultProducts = []string{
	`DIESEL(?:\s*S-?(?:10|500))?`,
	`GASOLINA`,
	`ETANOL`,
	`ARLA\s*32`,
	`[OÓ]LEO`,
	`QUEROSENE`,
	`LUBRIFICANTE`,
}

var defaultDateLayouts = []string{"02/01/2006 15:04", "2/1/2006 15:04", "02/01/2006", "2/1/2006"}

func baseProfile() LayoutProfile {
	return LayoutProfile{
		Labels: Labels{
			Driver:  "Motorista:",
			Vehicle: "Veículo:",
			Date:    "Previsão início:",
		},
		DateLayouts:    append([]string(nil), defaultDateLayouts...),
		InvoicePattern: `\d{6}`,
		Cities:         append([]string(nil), DefaultCities...),
		Products:       append([]string(nil), DefaultProducts...),
		Number:         BrazilianNumbers,
		Markers:        []string{"Pedido", "Cliente"},
	}
}

// BuiltinProfiles returns the two travel log renderings known out of the box.
func BuiltinProfiles() []LayoutProfile {
	ws := baseProfile()
	ws.Name = ProfileWhitespaceJoined
	ws.Grammar = GrammarDelimited
	ws.Separator = " | "
	ws.ClientBreak = "|"

	q := baseProfile()
	q.Name = ProfileQuotedCSV
	q.Grammar = GrammarQuoted
	q.Separator = ""
	// A client cell wraps onto a second rendered row.
	q.RowBreak = "\n"
	q.ClientBreak = "\n"

	return []LayoutProfile{ws, q}
}

// TextOptions tells the extractor how to join text for this layout.
func (p LayoutProfile) TextOptions() extract.Options {
	return extract.Options{Separator: p.Separator, RowBreak: p.RowBreak}
}

func (p LayoutProfile) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("layout profile: name is required")
	case p.Grammar != GrammarDelimited && p.Grammar != GrammarQuoted:
		return fmt.Errorf("layout profile %q: unknown grammar %q", p.Name, p.Grammar)
	case p.Grammar == GrammarDelimited && strings.TrimSpace(p.Separator) == "":
		return fmt.Errorf("layout profile %q: delimited grammar needs a visible separator", p.Name)
	case strings.TrimSpace(p.InvoicePattern) == "":
		return fmt.Errorf("layout profile %q: invoice pattern is required", p.Name)
	case len(p.Cities) == 0:
		return fmt.Errorf("layout profile %q: city list is empty", p.Name)
	case len(p.Products) == 0:
		return fmt.Errorf("layout profile %q: product list is empty", p.Name)
	case p.Number.Decimal == "":
		return fmt.Errorf("layout profile %q: decimal separator is required", p.Name)
	}
	return nil
}
