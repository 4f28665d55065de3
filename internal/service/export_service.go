package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/export"
)

// Export formats supported for stored timetables.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

// ExportedFile is a rendered timetable document.
type ExportedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// TimetableExporter renders a stored grid as a day by period table.
type TimetableExporter struct {
	csv csvRenderer
	pdf pdfRenderer
}

// NewTimetableExporter builds an exporter. Nil renderers fall back to the defaults.
func NewTimetableExporter(csv csvRenderer, pdf pdfRenderer) *TimetableExporter {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &TimetableExporter{csv: csv, pdf: pdf}
}

// Render produces the document in the requested format.
func (e *TimetableExporter) Render(timetable *models.Timetable, format string) (*ExportedFile, error) {
	dataset := gridDataset(timetable.Grid)
	base := fmt.Sprintf("timetable_%s_%s_%s", slug(timetable.DepartmentID), slug(timetable.Year), slug(timetable.Section))

	switch strings.ToLower(format) {
	case "", ExportFormatCSV:
		content, err := e.csv.Render(dataset)
		if err != nil {
			return nil, err
		}
		return &ExportedFile{Filename: base + ".csv", ContentType: "text/csv", Content: content}, nil
	case ExportFormatPDF:
		content, err := e.pdf.Render(dataset, export.PDFOptions{
			Title:     "Timetable",
			Subtitle:  fmt.Sprintf("%s / Year %s / Section %s", timetable.DepartmentID, timetable.Year, timetable.Section),
			Landscape: true,
		})
		if err != nil {
			return nil, err
		}
		return &ExportedFile{Filename: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func gridDataset(grid models.Grid) export.Dataset {
	headers := make([]string, 0, models.PeriodsPerDay+1)
	headers = append(headers, "Day")
	for period := 1; period <= models.PeriodsPerDay; period++ {
		headers = append(headers, fmt.Sprintf("P%d", period))
	}
	rows := make([][]string, 0, models.DaysPerWeek)
	for day := 0; day < models.DaysPerWeek; day++ {
		row := make([]string, 0, len(headers))
		row = append(row, models.DayAbbreviation(day))
		for period := 0; period < models.PeriodsPerDay; period++ {
			label, _ := grid.Label(models.Slot{Day: day, Period: period})
			row = append(row, label)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func slug(value string) string {
	fields := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
