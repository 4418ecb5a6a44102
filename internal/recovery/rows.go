package recovery

import (
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/extract"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetColumns names the spreadsheet headers of each field.
type SheetColumns struct {
	Invoice          string
	CustomerName     string
	CustomerDocument string
	Address          string
	Volume           string
	Weight           string
	Value            string
	Priority         string
	RouteName        string
	Date             string
	DriverID         string
	Plate            string
}

var DefaultSheetColumns = SheetColumns{
	Invoice:          "Nota Fiscal",
	CustomerName:     "Nome Cliente",
	CustomerDocument: "CNPJ Cliente",
	Address:          "Endereco",
	Volume:           "Volume",
	Weight:           "Peso",
	Value:            "Valor",
	Priority:         "Prioridade",
	RouteName:        "Nome da Rota",
	Date:             "Data",
	DriverID:         "CPF Motorista",
	Plate:            "Placa Veiculo",
}

// RouteGroup is the rows of one route name. Err is set when any row of the
// group is unusable; such a group is reported, never imported.
type RouteGroup struct {
	Label    string
	Manifest domain.Manifest
	Err      error
}

var sheetDateLayouts = []string{"02/01/2006", "2006-01-02", "01-02-06", "2/1/2006", "02/01/06", "2006-01-02 15:04:05"}

// MapRows groups spreadsheet rows into one manifest per route name, in first-seen order.
// Rows without a route name share a group labeled by date.
func MapRows(rows []extract.Row, cols SheetColumns, now time.Time) []RouteGroup {
	var groups []*RouteGroup
	byLabel := make(map[string]*RouteGroup)

	for _, row := range rows {
		label := collapseSpaces(row.Get(cols.RouteName))
		if label == "" {
			label = "Importação " + now.Format("02/01/2006")
		}

		g, ok := byLabel[label]
		if !ok {
			g = &RouteGroup{Label: label}
			g.Manifest.Header.Name = label
			byLabel[label] = g
			groups = append(groups, g)
		}
		if g.Err != nil {
			continue
		}

		if err := addRow(g, row, cols, now); err != nil {
			g.Err = fmt.Errorf("row %d: %w: %w", row.Index, domain.ErrInvalidImport, err)
		}
	}

	out := make([]RouteGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out
}

func addRow(g *RouteGroup, row extract.Row, cols SheetColumns, now time.Time) error {
	h := &g.Manifest.Header
	if h.Date.IsZero() {
		d, err := parseSheetDate(row.Get(cols.Date), now)
		if err != nil {
			return err
		}
		h.Date = d
	}
	if h.DriverIdentifier == "" {
		h.DriverIdentifier = row.Get(cols.DriverID)
	}
	if h.VehiclePlate == "" {
		h.VehiclePlate = strings.ToUpper(row.Get(cols.Plate))
	}

	invoice := row.Get(cols.Invoice)
	name := collapseSpaces(row.Get(cols.CustomerName))
	if invoice == "" {
		return errors.New("invoice number is required")
	}
	if name == "" {
		return errors.New("customer name is required")
	}

	var nums [3]float64
	for i, col := range []string{cols.Volume, cols.Weight, cols.Value} {
		v, err := ParseLooseNumber(row.Get(col))
		if err != nil {
			return fmt.Errorf("column %q: %w", col, err)
		}
		nums[i] = v
	}

	g.Manifest.Deliveries = append(g.Manifest.Deliveries, domain.CandidateDelivery{
		InvoiceNumber:       invoice,
		CustomerName:        name,
		CustomerDocument:    row.Get(cols.CustomerDocument),
		CustomerAddressText: collapseSpaces(row.Get(cols.Address)),
		Volume:              nums[0],
		Weight:              nums[1],
		Value:               nums[2],
		Priority:            domain.ParsePriority(row.Get(cols.Priority)),
	})
	return nil
}

func parseSheetDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}

	// Unformatted date cells come through as Excel serial numbers.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q: %w", raw, err)
		}
		return t, nil
	}

	for _, layout := range sheetDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: unrecognized format", raw)
}
