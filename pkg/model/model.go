// Package model defines the hydration records, snapshots and profiles that
// flow between the store, the engines and the transports.
//
// A Consumption is the unit of input: one drink logged by one user at an
// absolute UTC instant. Its effective hydration is always derived from the
// amount and the beverage's hydration factor; callers never set it.
//
// Example usage:
//
//	c, err := model.NewConsumption("user-1", model.LookupBeverage("coffee"), 300, time.Now())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(c.EffectiveHydrationML) // 240
package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MinHydrationFactor is the lowest accepted beverage hydration factor.
	MinHydrationFactor = 0.0

	// MaxHydrationFactor is the highest accepted beverage hydration factor.
	MaxHydrationFactor = 2.0
)

// Beverage describes what was drunk and how much it hydrates relative to water.
type Beverage struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	HydrationFactor float64 `json:"hydration_factor"`
}

// Validate checks the hydration factor bound.
func (b Beverage) Validate() error {
	if math.IsNaN(b.HydrationFactor) ||
		b.HydrationFactor < MinHydrationFactor ||
		b.HydrationFactor > MaxHydrationFactor {
		return ErrInvalidHydrationFactor
	}
	return nil
}

// Key returns the grouping key used for favorite-beverage detection.
func (b Beverage) Key() string {
	if b.Name != "" {
		return strings.ToLower(strings.TrimSpace(b.Name))
	}
	return b.ID
}

// Consumption is a single liquid intake event.
//
// Invariant: EffectiveHydrationML == floor(AmountML * Beverage.HydrationFactor).
// Invariant: OccurredAt is in UTC.
type Consumption struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Beverage             Beverage  `json:"beverage"`
	AmountML             int       `json:"amount_ml"`
	EffectiveHydrationML int       `json:"effective_hydration_ml"`
	OccurredAt           time.Time `json:"occurred_at"`

	// Pass-through context, never used by aggregation.
	ThirstLevel *int   `json:"thirst_level,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Location    string `json:"location,omitempty"`
}

// NewConsumption builds a validated consumption with a fresh id.
func NewConsumption(userID string, beverage Beverage, amountML int, occurredAt time.Time) (Consumption, error) {
	c := Consumption{
		ID:         uuid.NewString(),
		UserID:     userID,
		Beverage:   beverage,
		AmountML:   amountML,
		OccurredAt: occurredAt,
	}
	c.Recompute()

	if err := c.Validate(time.Now()); err != nil {
		return Consumption{}, err
	}
	return c, nil
}

// Recompute derives EffectiveHydrationML from the amount and the beverage,
// normalises OccurredAt to UTC and assigns an id if missing.
func (c *Consumption) Recompute() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.OccurredAt = c.OccurredAt.UTC()
	c.EffectiveHydrationML = EffectiveHydration(c.AmountML, c.Beverage.HydrationFactor)
}

// Years outside this range cannot be stored as nanosecond instants.
const (
	MinYear = 1678
	MaxYear = 2261
)

// YearInRange reports whether instants in year can be stored.
func YearInRange(year int) bool {
	return year >= MinYear && year <= MaxYear
}

// Validate checks the record invariants against the given server time.
func (c *Consumption) Validate(now time.Time) error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrMissingUser
	}
	if c.AmountML <= 0 {
		return ErrInvalidAmount
	}
	if err := c.Beverage.Validate(); err != nil {
		return err
	}
	if c.OccurredAt.IsZero() {
		return ErrMissingTimestamp
	}
	if !YearInRange(c.OccurredAt.UTC().Year()) {
		return ErrTimestampOutOfRange
	}
	if c.OccurredAt.After(now) {
		return ErrFutureTimestamp
	}
	return nil
}

// EffectiveHydration returns floor(amountML * factor).
//
// The product goes through decimal so that factors such as 0.7 or 1.1 do not
// lose a millilitre to binary rounding (300 * 0.7 must be 210, not 209).
func EffectiveHydration(amountML int, factor float64) int {
	if amountML <= 0 || factor <= 0 {
		return 0
	}
	product := decimal.NewFromInt(int64(amountML)).Mul(decimal.NewFromFloat(factor))
	return int(product.Floor().IntPart())
}

// Round2 rounds v half away from zero to two decimals.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Percent returns part/whole*100 rounded to two decimals, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(2).
		Float64()
	return f
}
