package export

import (
	"fmt"
	"strings"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	ContentTypePDF = "application/pdf"
	ContentTypeCSV = "text/csv"
)

// Field is a labelled scalar printed above the tabular body.
type Field struct {
	Label string
	Value string
}

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Document is the format-neutral payload handed to a renderer.
type Document struct {
	Title  string
	Fields []Field
	Table  Dataset
}

// Renderer dispatches a document to the exporter matching the requested format.
type Renderer struct {
	csv *CSVExporter
	pdf *PDFExporter
}

// NewRenderer builds a renderer with the bundled exporters.
func NewRenderer() *Renderer {
	return &Renderer{csv: NewCSVExporter(), pdf: NewPDFExporter()}
}

// Render produces the document bytes and their content type.
func (r *Renderer) Render(doc Document, format string) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		payload, err := r.csv.Render(doc)
		return payload, ContentTypeCSV, err
	case FormatPDF, "":
		payload, err := r.pdf.Render(doc)
		return payload, ContentTypePDF, err
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}

// SupportedFormat reports whether format can be rendered.
func SupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, FormatPDF:
		return true
	}
	return false
}
