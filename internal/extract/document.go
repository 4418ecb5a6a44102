package extract

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindPDF         Kind = "pdf"
	KindText        Kind = "text"
	KindSpreadsheet Kind = "spreadsheet"
	KindUnknown     Kind = "unknown"
)

// An uploaded document. Content is kept in memory; uploads are size-capped upstream.
type Document struct {
	Name        string
	ContentType string
	Content     []byte
}

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// Detect the document kind from its bytes first, then its name and declared type.
func DetectKind(doc Document) Kind {
	switch {
	case bytes.HasPrefix(doc.Content, pdfMagic):
		return KindPDF
	case bytes.HasPrefix(doc.Content, zipMagic):
		return KindSpreadsheet
	}

	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return KindPDF
	case ".xlsx", ".xlsm":
		return KindSpreadsheet
	case ".txt":
		return KindText
	}

	ct := doc.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(doc.Content)
	}
	if strings.HasPrefix(ct, "text/plain") {
		return KindText
	}
	return KindUnknown
}
