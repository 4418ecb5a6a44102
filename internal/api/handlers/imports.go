package handlers

import (
	"delivery-manifest-service/internal/api/dto"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/extract"
	"delivery-manifest-service/internal/services"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ImportHandler accepts uploaded manifests and spreadsheets.
type ImportHandler struct {
	Pipeline       *services.ManifestImporter
	MaxUploadBytes int64
}

// Manifest imports a PDF or text manifest as one route.
func (h *ImportHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	switch extract.DetectKind(doc) {
	case extract.KindPDF, extract.KindText:
	case extract.KindSpreadsheet:
		writeError(w, r, http.StatusBadRequest, "spreadsheets are imported at /imports/spreadsheet")
		return
	default:
		writeError(w, r, http.StatusUnsupportedMediaType, "file must be a PDF or plain-text manifest")
		return
	}

	tenantID := chi.URLParam(r, "tenantID")
	route, err := h.Pipeline.ImportDocument(r.Context(), tenantID, r.URL.Query().Get("layout"), doc)
	if err != nil {
		writeServiceError(w, r, "import manifest", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, routeResponse(route))
}

// Spreadsheet imports every route of an xlsx workbook.
func (h *ImportHandler) Spreadsheet(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if extract.DetectKind(doc) != extract.KindSpreadsheet {
		writeError(w, r, http.StatusUnsupportedMediaType, "file must be an xlsx workbook")
		return
	}

	tenantID := chi.URLParam(r, "tenantID")
	summary, err := h.Pipeline.ImportSpreadsheet(r.Context(), tenantID, doc)
	if err != nil {
		writeServiceError(w, r, "import spreadsheet", err)
		return
	}

	res := dto.ImportSummaryResponse{
		SuccessCount: summary.SuccessCount,
		RouteIDs:     summary.RouteIDs,
		Errors:       make([]dto.RouteErrorResponse, 0, len(summary.Errors)),
	}
	for _, e := range summary.Errors {
		res.Errors = append(res.Errors, dto.RouteErrorResponse{RouteLabel: e.RouteLabel, Message: e.Message})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Read the multipart "file" field into memory, capped at MaxUploadBytes.
func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) (extract.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.MaxUploadBytes))
			return extract.Document{}, false
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart body")
		return extract.Document{}, false
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return extract.Document{}, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable file")
		return extract.Document{}, false
	}
	if len(content) == 0 {
		writeServiceError(w, r, "import", fmt.Errorf("file %q: %w", hdr.Filename, domain.ErrEmptyDocument))
		return extract.Document{}, false
	}

	return extract.Document{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Content:     content,
	}, true
}
