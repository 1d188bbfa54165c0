package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Document is the synthesized checklist content rendered into downloads.
type Document struct {
	Title       string
	Description string
	Features    []string
	Sections    []Section
}

// Section groups checklist lines under a phase heading.
type Section struct {
	Heading string
	Lines   []Line
}

// Line is a single checklist entry.
type Line struct {
	Text     string
	Required bool
}

// PDFExporter renders synthesized checklist documents into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the checklist title, description,
// feature list and one section per phase with checkbox lines.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf requires a document title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 9, tr(doc.Title), "", "L", false)
	pdf.Ln(2)

	if doc.Description != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(doc.Description), "", "L", false)
		pdf.Ln(3)
	}

	if len(doc.Features) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Features", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, feature := range doc.Features {
			pdf.MultiCell(0, 5, tr("- "+feature), "", "L", false)
		}
		pdf.Ln(3)
	}

	for _, section := range doc.Sections {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(section.Heading), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, line := range section.Lines {
			text := "[ ] " + line.Text
			if line.Required {
				text += " (required)"
			}
			pdf.MultiCell(0, 5, tr(text), "", "L", false)
		}
		pdf.Ln(2)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderText renders a free-form markdown/text body under a title, for
// checklists whose content is a stored text payload.
func (e *PDFExporter) RenderText(title, body string) ([]byte, error) {
	if title == "" {
		return nil, fmt.Errorf("pdf requires a document title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 9, tr(title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
