package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Day", "P1", "P2"},
		Rows: [][]string{
			{"Mon", "Maths", "DBMS Lab"},
			{"Tue", "", "Physics, Intro"},
			{"Wed"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Day,P1,P2\nMon,Maths,DBMS Lab\nTue,,\"Physics, Intro\"\nWed,,\n", string(out))
}

func TestCSVExporterRejectsMalformedDatasets(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"Day"}, Rows: [][]string{{"Mon", "Maths"}}})
	assert.EqualError(t, err, "csv row 1 has 2 cells for 1 headers")
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), PDFOptions{Title: "Timetable", Subtitle: "CSE III A", Landscape: true})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, PDFOptions{})
	require.Error(t, err)
}
