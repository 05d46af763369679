// Package parser reads consumption logs in JSON Lines form.
//
// Each line holds one drink:
//
//	{"user_id":"u-1","beverage":{"name":"coffee"},"amount_ml":300,"occurred_at":"2024-03-15T08:30:00-03:00"}
//
// Lines that are not valid JSON or that describe an invalid record are
// logged, counted and skipped rather than failing the whole file.
//
// Example usage:
//
//	p := parser.New(log, time.Now)
//	res, err := p.ParseFile("/var/hydrotrack/inbox/2024-03-15.jsonl", 0)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d records, %d skipped, next offset %d\n",
//	    len(res.Records), res.Skipped, res.Offset)
package parser

import (
	"time"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// Line is the wire form of one consumption log line.
type Line struct {
	ID          string        `json:"id,omitempty"`
	UserID      string        `json:"user_id"`
	Beverage    *BeverageLine `json:"beverage,omitempty"`
	AmountML    int           `json:"amount_ml"`
	OccurredAt  time.Time     `json:"occurred_at"`
	ThirstLevel *int          `json:"thirst_level,omitempty"`
	Mood        string        `json:"mood,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Location    string        `json:"location,omitempty"`
}

// BeverageLine is the beverage of a log line. A missing hydration factor is
// taken from the beverage catalog.
type BeverageLine struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	HydrationFactor *float64 `json:"hydration_factor,omitempty"`
}

// Consumption converts the line into a record with derived fields filled in.
func (l *Line) Consumption() model.Consumption {
	bev := model.LookupBeverage("")
	if l.Beverage != nil {
		bev = model.LookupBeverage(l.Beverage.Name)
		if l.Beverage.ID != "" {
			bev.ID = l.Beverage.ID
		}
		if l.Beverage.HydrationFactor != nil {
			bev.HydrationFactor = *l.Beverage.HydrationFactor
		}
	}

	c := model.Consumption{
		ID:          l.ID,
		UserID:      l.UserID,
		Beverage:    bev,
		AmountML:    l.AmountML,
		OccurredAt:  l.OccurredAt,
		ThirstLevel: l.ThirstLevel,
		Mood:        l.Mood,
		Notes:       l.Notes,
		Location:    l.Location,
	}
	c.Recompute()
	return c
}

// Result is the outcome of parsing one file region.
type Result struct {
	// Records holds the valid records in file order.
	Records []model.Consumption

	// Starts holds the byte position at which each record's line begins,
	// parallel to Records.
	Starts []int64

	// Skipped counts malformed or invalid lines.
	Skipped int

	// Start is the byte position the region was read from.
	Start int64

	// Offset is the byte position after the last consumed line.
	Offset int64
}
