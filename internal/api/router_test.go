package api

import (
	"bytes"
	"context"
	"delivery-manifest-service/internal/adapters/repositories"
	"delivery-manifest-service/internal/api/dto"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/db"
	"delivery-manifest-service/internal/platform/metrics"
	"delivery-manifest-service/internal/recovery"
	"delivery-manifest-service/internal/services"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const sampleManifest = "Motorista: JOAO DA SILVA | Veículo: ABC1D23 | Previsão início: 09/03/2026 | Pedido | Cliente | " +
	"123456 | ACME LTDA | Rua X, 10 | FORTALEZA | JOAO VENDEDOR | DIESEL S10 | ... 1.500,00 | " +
	"654321 | BETA COMERCIO | Av. Y, 200 | CAUCAIA | MARIA | GASOLINA COMUM | 2.000,50"

func newTestRouter(t *testing.T, ratePerMinute int) http.Handler {
	t.Helper()

	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), sqlDB))

	store := repositories.NewStore(sqlDB)
	require.NoError(t, store.CreateDriver(context.Background(), &domain.Driver{
		ID: "drv-1", TenantID: "t1", Name: "JOAO DA SILVA",
	}))

	layouts, err := recovery.NewRegistry()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	now := func() time.Time { return time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC) }

	pipeline := services.NewManifestImporter(services.ManifestImporterConfig{
		Layouts:       layouts,
		Routes:        services.NewRouteImporter(store, nil, services.WithClock(now), services.WithMetrics(m)),
		DefaultLayout: recovery.ProfileWhitespaceJoined,
		Metrics:       m,
		Now:           now,
	})

	return NewRouter(Deps{
		Pipeline:            pipeline,
		Routes:              services.NewRouteQueries(store, domain.Coordinates{Lon: -38.5, Lat: -3.7}),
		Deliveries:          services.NewDeliveryStatusService(store, nil, now),
		DefaultLayout:       recovery.ProfileWhitespaceJoined,
		MaxUploadBytes:      1 << 20,
		ImportRatePerMinute: ratePerMinute,
		Metrics:             m,
		Gatherer:            reg,
	})
}

func upload(t *testing.T, h http.Handler, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndLayouts(t *testing.T) {
	h := newTestRouter(t, 0)

	rec := do(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(h, http.MethodGet, "/layouts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.LayoutsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.ElementsMatch(t, []string{recovery.ProfileWhitespaceJoined, recovery.ProfileQuotedCSV}, res.Layouts)
	require.Equal(t, recovery.ProfileWhitespaceJoined, res.Default)
}

func TestManifestImportFlow(t *testing.T) {
	h := newTestRouter(t, 0)

	rec := upload(t, h, "/tenants/t1/imports/manifest", "manifesto.txt", sampleManifest)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var route dto.RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &route))
	require.Len(t, route.DeliveryIDs, 2)
	require.Equal(t, "PLANNED", route.Status)
	require.NotNil(t, route.DriverID)
	require.Equal(t, "drv-1", *route.DriverID)
	require.Nil(t, route.VehicleID)

	rec = do(h, http.MethodGet, "/tenants/t1/routes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ListRoutesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Routes, 1)

	rec = do(h, http.MethodGet, "/tenants/t2/routes", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Empty(t, list.Routes)

	rec = do(h, http.MethodGet, "/tenants/t1/routes/"+route.ID+"/stops", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stops dto.ListStopsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stops))
	require.Len(t, stops.Stops, 2)
	require.Equal(t, "ACME LTDA", stops.Stops[0].CustomerName)
	require.False(t, stops.Stops[0].Resolved)

	rec = do(h, http.MethodGet, "/tenants/t1/routes/missing/stops", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	path := "/tenants/t1/deliveries/" + route.DeliveryIDs[0] + "/status"

	rec = do(h, http.MethodPatch, path, `{"status":"delivered"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(h, http.MethodPatch, path, `{"status":"lost"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPatch, path, `{"status":"in_transit","extra":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPatch, path, `{"status":"in_transit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var d dto.DeliveryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	require.Equal(t, "IN_TRANSIT", d.Status)
}

func TestManifestImportErrors(t *testing.T) {
	h := newTestRouter(t, 0)

	rec := upload(t, h, "/tenants/t1/imports/manifest", "lista.txt", "pão, leite, café")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "no deliveries recognized")

	rec = upload(t, h, "/tenants/t1/imports/manifest", "vazio.txt", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = upload(t, h, "/tenants/t1/imports/manifest?layout=nope", "m.txt", sampleManifest)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, h, "/tenants/t1/imports/manifest", "m.bin", "\x00\x01\x02\x03")
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload(t, h, "/tenants/t1/imports/spreadsheet", "m.txt", sampleManifest)
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = do(h, http.MethodPost, "/tenants/t1/imports/manifest", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportRateLimitPerTenant(t *testing.T) {
	h := newTestRouter(t, 1)

	rec := upload(t, h, "/tenants/t1/imports/manifest", "m.txt", sampleManifest)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = upload(t, h, "/tenants/t1/imports/manifest", "m.txt", sampleManifest)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = upload(t, h, "/tenants/t2/imports/manifest", "m.txt", sampleManifest)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestGeocodeUnavailableWithoutGeocoder(t *testing.T) {
	h := newTestRouter(t, 0)
	rec := do(h, http.MethodPost, "/tenants/t1/customers/geocode", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, 0)
	do(h, http.MethodGet, "/health", "")

	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `manifest_http_requests_total{endpoint="/health",method="GET",status_code="200"} 1`)
}
