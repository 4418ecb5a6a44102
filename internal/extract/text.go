package extract

import (
	"bytes"
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/platform/obs"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Options controls how text tokens are glued together.
// The layout profile decides both: a whitespace-padded marker for
// whitespace-column layouts, nothing inside a row for layouts whose tokens
// carry their own quoting.
type Options struct {
	// Joins the text runs of one rendered row.
	Separator string
	// Joins rendered rows and pages. Empty means Separator.
	RowBreak string
}

func (o Options) rowBreak() string {
	if o.RowBreak == "" {
		return o.Separator
	}
	return o.RowBreak
}

// TextExtractor turns a manifest document into one contiguous text blob.
// Pages are read strictly in order and each page's rows are emitted top to bottom.
type TextExtractor struct {
	logger *zap.Logger
}

func NewTextExtractor(logger *zap.Logger) *TextExtractor {
	return &TextExtractor{logger: logging.OrNop(logger)}
}

// Return the document text. Fails with domain.ErrEmptyDocument when nothing readable is found.
func (e *TextExtractor) ExtractText(ctx context.Context, doc Document, opts Options) (_ string, err error) {
	defer obs.Time(ctx, "extract.ExtractText")(&err)

	if len(doc.Content) == 0 {
		return "", fmt.Errorf("extract text %q: %w", doc.Name, domain.ErrEmptyDocument)
	}

	var text string
	switch kind := DetectKind(doc); kind {
	case KindPDF:
		text, err = e.extractPDF(ctx, doc, opts)
		if err != nil {
			return "", err
		}
	case KindText:
		if !utf8.Valid(doc.Content) {
			return "", fmt.Errorf("extract text %q: content is not valid UTF-8", doc.Name)
		}
		text = string(doc.Content)
	default:
		return "", fmt.Errorf("extract text %q: unsupported document kind %q", doc.Name, kind)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("extract text %q: %w", doc.Name, domain.ErrEmptyDocument)
	}
	return text, nil
}

func (e *TextExtractor) extractPDF(ctx context.Context, doc Document, opts Options) (_ string, err error) {
	// The pdf reader panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract pdf %q: malformed document: %v", doc.Name, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return "", fmt.Errorf("extract pdf %q: open: %w", doc.Name, err)
	}

	pages := r.NumPage()
	if pages == 0 {
		return "", fmt.Errorf("extract pdf %q: %w", doc.Name, domain.ErrEmptyDocument)
	}

	rows := make([]string, 0, pages*48)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		lines, err := pageRows(page, opts.Separator)
		if err != nil {
			return "", fmt.Errorf("extract pdf %q: page %d: %w", doc.Name, i, err)
		}
		rows = append(rows, lines...)
	}

	e.logger.Debug("pdf extracted",
		zap.String("document", doc.Name),
		zap.Int("pages", pages),
		zap.Int("rows", len(rows)),
	)

	return JoinTokens(rows, opts.rowBreak()), nil
}

// pageRows renders each text row of the page, top to bottom, its runs joined
// left to right with sep. Runs drawn at the same position form one cell.
func pageRows(page pdf.Page, sep string) ([]string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		var (
			cells []string
			cell  strings.Builder
			lastX float64
		)
		for _, t := range row.Content {
			if t.S == "" {
				continue
			}
			if cell.Len() > 0 && t.X != lastX {
				cells = append(cells, cell.String())
				cell.Reset()
			}
			cell.WriteString(t.S)
			lastX = t.X
		}
		cells = append(cells, cell.String())

		if s := strings.TrimSpace(JoinTokens(cells, sep)); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Join tokens in order with sep, dropping blank tokens.
func JoinTokens(tokens []string, sep string) string {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t) == "" {
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, sep)
}
