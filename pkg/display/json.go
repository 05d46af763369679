package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/hydrotrack/pkg/aggregator"
	"github.com/0xmhha/hydrotrack/pkg/ingest"
	"github.com/0xmhha/hydrotrack/pkg/insight"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/0xmhha/hydrotrack/pkg/trend"
)

// jsonFormatter formats output as JSON, using the same field names as the
// HTTP API.
type jsonFormatter struct {
	config Config
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatSummary implements Formatter.FormatSummary.
func (f *jsonFormatter) FormatSummary(w io.Writer, s *aggregator.Summary) error {
	return f.encode(w, s)
}

// FormatTrend implements Formatter.FormatTrend.
func (f *jsonFormatter) FormatTrend(w io.Writer, r *trend.Result) error {
	return f.encode(w, r)
}

// FormatInsights implements Formatter.FormatInsights.
func (f *jsonFormatter) FormatInsights(w io.Writer, r *insight.Report) error {
	return f.encode(w, r)
}

// FormatSnapshot implements Formatter.FormatSnapshot.
func (f *jsonFormatter) FormatSnapshot(w io.Writer, s model.DailySnapshot) error {
	return f.encode(w, s)
}

// FormatConsumption implements Formatter.FormatConsumption.
func (f *jsonFormatter) FormatConsumption(w io.Writer, c model.Consumption) error {
	return f.encode(w, c)
}

// FormatProfiles implements Formatter.FormatProfiles.
func (f *jsonFormatter) FormatProfiles(w io.Writer, profiles []*model.Profile) error {
	if profiles == nil {
		profiles = []*model.Profile{}
	}
	return f.encode(w, profiles)
}

// FormatUpdate implements Formatter.FormatUpdate.
func (f *jsonFormatter) FormatUpdate(w io.Writer, u ingest.Update) error {
	return f.encode(w, u)
}
