package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	return Report{
		Title:   "Snag report: Unit 12",
		Summary: []Field{{Label: "Completion", Value: "50%"}},
		Sections: []Section{{
			Heading: "Items",
			Data: Dataset{
				Headers: []string{"Title", "Status"},
				Rows: []map[string]string{
					{"Title": "Cracked tile", "Status": "OPEN"},
					{"Title": "Door, sticking", "Status": "COMPLETED"},
				},
			},
		}},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, []string{
		"Snag report: Unit 12",
		"Completion,50%",
		`""`,
		"Items",
		"Title,Status",
		"Cracked tile,OPEN",
		`"Door, sticking",COMPLETED`,
	}, lines)
}

func TestCSVExporterRequiresSections(t *testing.T) {
	_, err := NewCSVExporter().Render(Report{Title: "empty"})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	assert.Equal(t, "abcdefghi...", truncate(strings.Repeat("abcdefghij", 3), 19.2))
}
