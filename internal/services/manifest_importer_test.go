package services

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/extract"
	"delivery-manifest-service/internal/platform/metrics"
	"delivery-manifest-service/internal/recovery"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleManifest = "Motorista: JOAO DA SILVA | Veículo: ABC1D23 | Previsão início: 09/03/2026 | Pedido | Cliente | " +
	"123456 | ACME LTDA | Rua X, 10 | FORTALEZA | JOAO VENDEDOR | DIESEL S10 | ... 1.500,00 | " +
	"654321 | BETA COMERCIO | Av. Y, 200 | CAUCAIA | MARIA | GASOLINA COMUM | 2.000,50"

func newPipeline(t *testing.T, f *fixture) (*ManifestImporter, *metrics.Registry) {
	t.Helper()

	layouts, err := recovery.NewRegistry()
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	return NewManifestImporter(ManifestImporterConfig{
		Layouts:       layouts,
		Routes:        f.importer(WithMetrics(m)),
		DefaultLayout: recovery.ProfileWhitespaceJoined,
		Metrics:       m,
		Now:           clock,
	}), m
}

func TestImportDocumentEndToEnd(t *testing.T) {
	f := setup(t)
	f.seedFleet(t)
	pipeline, m := newPipeline(t, f)
	ctx := context.Background()

	route, err := pipeline.ImportDocument(ctx, tenant, "", extract.Document{
		Name:    "manifesto.txt",
		Content: []byte(sampleManifest),
	})
	require.NoError(t, err)

	require.Equal(t, "Rota - ABC1D23 - JOAO DA SILVA - 09/03/2026", route.Name)
	require.Equal(t, time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC), route.Date)
	require.True(t, route.Driver.IsResolved())
	require.True(t, route.Vehicle.IsResolved())

	deliveries, err := f.store.ListRouteDeliveries(ctx, tenant, route.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	require.Equal(t, "123456", deliveries[0].InvoiceNumber)
	require.InDelta(t, 1500.0, deliveries[0].Volume, 1e-9)
	require.Equal(t, "DIESEL S10", deliveries[0].Product)
	require.Equal(t, "654321", deliveries[1].InvoiceNumber)

	stops, err := f.store.ListRouteStops(ctx, tenant, route.ID)
	require.NoError(t, err)
	require.Equal(t, "ACME LTDA", stops[0].CustomerName)
	require.Equal(t, "Rua X, 10 - FORTALEZA", stops[0].Address)

	require.InDelta(t, 1, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("text", "ok")), 1e-9)
	require.InDelta(t, 2, testutil.ToFloat64(m.DeliveriesImported), 1e-9)
	require.InDelta(t, 2, testutil.ToFloat64(m.CustomersCreated), 1e-9)
}

func TestImportDocumentFailsFastBeforeTransaction(t *testing.T) {
	f := setup(t)
	pipeline, m := newPipeline(t, f)
	ctx := context.Background()

	_, err := pipeline.ImportDocument(ctx, tenant, "", extract.Document{Name: "vazio.txt", Content: []byte("   \n ")})
	require.ErrorIs(t, err, domain.ErrEmptyDocument)

	_, err = pipeline.ImportDocument(ctx, tenant, "", extract.Document{Name: "lista.txt", Content: []byte("pão, leite, café")})
	require.ErrorIs(t, err, domain.ErrNoDeliveriesRecognized)

	_, err = pipeline.ImportDocument(ctx, tenant, "nope", extract.Document{Name: "m.txt", Content: []byte(sampleManifest)})
	require.ErrorIs(t, err, domain.ErrUnknownLayout)

	require.Zero(t, f.count(t, "routes"))
	require.InDelta(t, 1, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("text", "no_deliveries")), 1e-9)
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	x := excelize.NewFile()
	defer x.Close()

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, x.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := x.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportSpreadsheetPartialSuccess(t *testing.T) {
	f := setup(t)
	f.seedFleet(t)
	pipeline, _ := newPipeline(t, f)

	content := workbook(t, [][]any{
		{"Nota Fiscal", "Nome Cliente", "CNPJ Cliente", "Endereço", "Volume", "Peso", "Valor", "Prioridade", "Nome da Rota", "Data", "CPF Motorista", "Placa Veículo"},
		{"1001", "ACME LTDA", "12.345.678/0001-99", "Rua X, 10", "10", "25,5", "1.234,56", "ALTA", "Rota Norte", "09/03/2026", "123.456.789-00", "ABC1D23"},
		{"1002", "BETA SA", "", "Av. Y, 200", "5", "10", "300", "", "Rota Norte", "09/03/2026", "123.456.789-00", "ABC1D23"},
		{"2001", "GAMA ME", "", "Rua Z, 1", "muito", "1", "1", "", "Rota Sul", "09/03/2026", "", ""},
	})

	summary, err := pipeline.ImportSpreadsheet(context.Background(), tenant, extract.Document{
		Name:    "rotas.xlsx",
		Content: content,
	})
	require.NoError(t, err)

	require.Equal(t, 1, summary.SuccessCount)
	require.Len(t, summary.RouteIDs, 1)
	require.Len(t, summary.Errors, 1)
	require.Equal(t, "Rota Sul", summary.Errors[0].RouteLabel)
	require.Contains(t, summary.Errors[0].Message, "Volume")

	route, err := f.store.GetRoute(context.Background(), tenant, summary.RouteIDs[0])
	require.NoError(t, err)
	require.Equal(t, "Rota Norte", route.Name)
	require.True(t, route.Driver.IsResolved())

	deliveries, err := f.store.ListRouteDeliveries(context.Background(), tenant, route.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	require.Equal(t, domain.PriorityHigh, deliveries[0].Priority)
	require.InDelta(t, 1234.56, deliveries[0].Value, 1e-9)
	require.InDelta(t, 25.5, deliveries[0].Weight, 1e-9)
}
