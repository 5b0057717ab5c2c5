package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// GridPage is one group's timetable grid: a page title plus one row per
// working day with a fixed number of hour cells.
type GridPage struct {
	Title    string
	HourHead []string
	Rows     []GridRow
}

// GridRow is one working day of a grid page.
type GridRow struct {
	Label string
	Cells []string
}

// PDFExporter renders timetable grids into a landscape PDF, one page per
// group.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with one grid page per entry.
func (e *PDFExporter) Render(title string, pages []GridPage) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf requires at least one grid page")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	for _, page := range pages {
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, page.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)

		labelWidth := 45.0
		colWidth := (277.0 - labelWidth) / float64(len(page.HourHead))

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(labelWidth, 8, "Day", "1", 0, "C", false, 0, "")
		for _, head := range page.HourHead {
			pdf.CellFormat(colWidth, 8, head, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range page.Rows {
			pdf.CellFormat(labelWidth, 8, row.Label, "1", 0, "", false, 0, "")
			for i := 0; i < len(page.HourHead); i++ {
				cell := ""
				if i < len(row.Cells) {
					cell = row.Cells[i]
				}
				pdf.CellFormat(colWidth, 8, cell, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
