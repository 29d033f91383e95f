package gtfsdb

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/OneBusAway/go-gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/internal/logging"
)

func TestDumpStaticSummary(t *testing.T) {
	staticData, err := gtfs.ParseStatic(buildFeed(t, metroFeedFiles()), gtfs.ParseStaticOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

	DumpStaticSummary(logger, staticData)

	output := buf.String()
	assert.Contains(t, output, `"msg":"static_data_sample"`)
	assert.Contains(t, output, "R_RD")
	assert.Contains(t, output, "RED_Rithala to Dilshad Garden")
}

func TestDumpStaticSummaryNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		DumpStaticSummary(nil, nil)
		DumpStaticSummary(slog.Default(), nil)
	})
}

func TestTableCounts(t *testing.T) {
	client := newSeededClient(t)

	counts, err := client.TableCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["agencies"])
	assert.Equal(t, 2, counts["routes"])
	assert.Equal(t, 3, counts["shapes"])
	assert.NotContains(t, counts, "sqlite_sequence")
}
