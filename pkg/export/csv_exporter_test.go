package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"title", "start"},
		Rows: []map[string]string{
			{"title": "Gym", "start": "2024-03-18T18:00:00Z"},
			{"title": "Dîner", "start": "2024-03-18T19:30:00Z"},
		},
	})
	require.NoError(t, err)

	out := string(payload)
	assert.True(t, strings.HasPrefix(out, "\uFEFF"), "expected UTF-8 BOM prefix")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\uFEFF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "title,start", lines[0])
	assert.Equal(t, "Gym,2024-03-18T18:00:00Z", lines[1])
	assert.Equal(t, "Dîner,2024-03-18T19:30:00Z", lines[2])
}

func TestCSVExporterRenderWithoutBOM(t *testing.T) {
	exporter := &CSVExporter{}

	payload, err := exporter.Render(Dataset{Headers: []string{"title"}})
	require.NoError(t, err)
	assert.Equal(t, "title\n", string(payload))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
