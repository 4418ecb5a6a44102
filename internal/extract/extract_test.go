package extract

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestJoinTokens(t *testing.T) {
	tokens := []string{"Motorista: JOAO", " ", "123456", "", "ACME LTDA"}

	require.Equal(t, "Motorista: JOAO | 123456 | ACME LTDA", JoinTokens(tokens, " | "))
	require.Equal(t, "Motorista: JOAO123456ACME LTDA", JoinTokens(tokens, ""))
}

func TestDetectKind(t *testing.T) {
	cases := []struct {
		doc  Document
		want Kind
	}{
		{Document{Name: "x.bin", Content: []byte("%PDF-1.7 ...")}, KindPDF},
		{Document{Name: "upload", Content: []byte("PK\x03\x04....")}, KindSpreadsheet},
		{Document{Name: "manifest.txt", Content: []byte("Pedido Cliente")}, KindText},
		{Document{Name: "upload", Content: []byte("Pedido Cliente")}, KindText},
		{Document{Name: "upload", Content: []byte{0x00, 0x01, 0x02}}, KindUnknown},
	}
	for _, c := range cases {
		require.Equal(t, c.want, DetectKind(c.doc), c.doc.Name)
	}
}

func TestExtractTextPassesPlainTextThrough(t *testing.T) {
	e := NewTextExtractor(nil)
	blob := "Motorista: JOAO | 123456 | ACME LTDA"

	got, err := e.ExtractText(context.Background(), Document{Name: "m.txt", Content: []byte(blob)}, Options{})
	require.NoError(t, err)
	require.Equal(t, blob, got)
}

func TestExtractTextEmptyDocument(t *testing.T) {
	e := NewTextExtractor(nil)

	_, err := e.ExtractText(context.Background(), Document{Name: "m.txt"}, Options{})
	require.ErrorIs(t, err, domain.ErrEmptyDocument)

	_, err = e.ExtractText(context.Background(), Document{Name: "m.txt", Content: []byte("  \n\t ")}, Options{})
	require.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestExtractTextRejectsBrokenPDF(t *testing.T) {
	e := NewTextExtractor(nil)

	_, err := e.ExtractText(context.Background(), Document{Name: "m.pdf", Content: []byte("%PDF-1.4 not really a pdf")}, Options{})
	require.Error(t, err)
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadRows(t *testing.T) {
	content := buildWorkbook(t, [][]any{
		{"Nota Fiscal", "Nome Cliente", "Endereço"},
		{"1001", " ACME LTDA ", "Rua X, 10"},
		{"", "", ""},
		{"1002", "BETA SA", ""},
	})

	rows, err := NewSheetReader().ReadRows(context.Background(), Document{Name: "r.xlsx", Content: content})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "1001", rows[0].Get("Nota Fiscal"))
	require.Equal(t, "ACME LTDA", rows[0].Get("nome cliente"))
	require.Equal(t, "Rua X, 10", rows[0].Get("Endereco"))
	require.Equal(t, 2, rows[0].Index)
	require.Equal(t, "BETA SA", rows[1].Get("Nome Cliente"))
}

func TestReadRowsEmptyDocument(t *testing.T) {
	headerOnly := buildWorkbook(t, [][]any{{"Nota Fiscal", "Nome Cliente"}})

	_, err := NewSheetReader().ReadRows(context.Background(), Document{Name: "r.xlsx", Content: headerOnly})
	require.ErrorIs(t, err, domain.ErrEmptyDocument)

	blank := buildWorkbook(t, nil)
	_, err = NewSheetReader().ReadRows(context.Background(), Document{Name: "r.xlsx", Content: blank})
	require.ErrorIs(t, err, domain.ErrEmptyDocument)
}
