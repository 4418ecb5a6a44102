package extract

import (
	"bytes"
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/obs"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one spreadsheet data row keyed by its column header.
type Row struct {
	Index  int
	values map[string]string
}

func NewRow(index int, values map[string]string) Row {
	norm := make(map[string]string, len(values))
	for k, v := range values {
		norm[headerKey(k)] = strings.TrimSpace(v)
	}
	return Row{Index: index, values: norm}
}

// Get returns the trimmed cell under header, matched case- and accent-insensitively.
func (r Row) Get(header string) string {
	return r.values[headerKey(header)]
}

func (r Row) IsBlank() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}

func headerKey(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(domain.FoldAccents(h)), " "))
}

// SheetReader reads the first worksheet of an xlsx workbook.
type SheetReader struct{}

func NewSheetReader() *SheetReader { return &SheetReader{} }

// Return the data rows of the first sheet. The first non-empty row is the header.
func (s *SheetReader) ReadRows(ctx context.Context, doc Document) (_ []Row, err error) {
	defer obs.Time(ctx, "extract.ReadRows")(&err)

	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("read spreadsheet %q: %w", doc.Name, domain.ErrEmptyDocument)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %q: open: %w", doc.Name, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("read spreadsheet %q: %w", doc.Name, domain.ErrEmptyDocument)
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %q: rows of %q: %w", doc.Name, sheets[0], err)
	}

	headerAt := -1
	for i, cells := range raw {
		if strings.TrimSpace(strings.Join(cells, "")) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("read spreadsheet %q: %w", doc.Name, domain.ErrEmptyDocument)
	}
	headers := raw[headerAt]

	rows := make([]Row, 0, len(raw)-headerAt)
	for i := headerAt + 1; i < len(raw); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := make(map[string]string, len(headers))
		for c, h := range headers {
			if strings.TrimSpace(h) == "" {
				continue
			}
			if c < len(raw[i]) {
				values[h] = raw[i][c]
			}
		}

		// Excel row numbers are 1-based.
		row := NewRow(i+1, values)
		if row.IsBlank() {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("read spreadsheet %q: no data rows: %w", doc.Name, domain.ErrEmptyDocument)
	}
	return rows, nil
}
