// Package display renders summaries, trends, insight reports, snapshots
// and ingest progress for the command line.
//
// It supports multiple output formats (table, JSON, simple text). Table
// output draws goal progress bars sized from the terminal width.
package display

import (
	"io"

	"github.com/0xmhha/hydrotrack/pkg/aggregator"
	"github.com/0xmhha/hydrotrack/pkg/ingest"
	"github.com/0xmhha/hydrotrack/pkg/insight"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/trend"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays results in formatted tables.
	FormatTable Format = "table"

	// FormatJSON displays results as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays results as one line of text each.
	FormatSimple Format = "simple"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatJSON, FormatSimple}

// Formatter formats and displays hydration results.
type Formatter interface {
	// FormatSummary formats a period summary and its breakdown.
	FormatSummary(w io.Writer, s *aggregator.Summary) error

	// FormatTrend formats a trend comparison.
	FormatTrend(w io.Writer, r *trend.Result) error

	// FormatInsights formats an insight report.
	FormatInsights(w io.Writer, r *insight.Report) error

	// FormatSnapshot formats a stored daily snapshot.
	FormatSnapshot(w io.Writer, s model.DailySnapshot) error

	// FormatConsumption formats a single stored record.
	FormatConsumption(w io.Writer, c model.Consumption) error

	// FormatProfiles formats user profiles.
	FormatProfiles(w io.Writer, profiles []*model.Profile) error

	// FormatUpdate formats the outcome of one ingested file.
	FormatUpdate(w io.Writer, u ingest.Update) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowPercentiles enables percentile display.
	ShowPercentiles bool

	// ShowTimestamps enables first/last seen display.
	ShowTimestamps bool

	// Compact enables compact output (less whitespace).
	Compact bool

	// Width is the line width for progress bars.
	// Default: the terminal width of stdout, or 80 when stdout is not a terminal.
	Width int
}
