package model

import "time"

// DailySnapshot is the per-user, per-local-day goal record.
//
// It is rebuilt from a full read of the day's records on every mutation and
// carries no wall-clock fields, so two rebuilds over the same records are
// identical.
type DailySnapshot struct {
	UserID               string `json:"user_id"`
	Date                 string `json:"date"`
	TimeZone             string `json:"time_zone"`
	GoalML               int    `json:"goal_ml"`
	ConsumedML           int    `json:"consumed_ml"`
	EffectiveHydrationML int    `json:"effective_hydration_ml"`
	RecordCount          int    `json:"record_count"`
	Completed            bool   `json:"completed"`
}

// BuildSnapshot sums records into a snapshot for date.
// Records are assumed to be already scoped to the user and the day.
func BuildSnapshot(userID, date string, loc *time.Location, goalML int, records []Consumption) DailySnapshot {
	s := DailySnapshot{
		UserID:   userID,
		Date:     date,
		TimeZone: loc.String(),
		GoalML:   goalML,
	}
	for i := range records {
		s.ConsumedML += records[i].AmountML
		s.EffectiveHydrationML += records[i].EffectiveHydrationML
		s.RecordCount++
	}
	s.Completed = goalML > 0 && s.EffectiveHydrationML >= goalML
	return s
}
