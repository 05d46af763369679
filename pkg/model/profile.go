package model

import (
	"strings"
	"time"
)

// Profile holds what the engines need to know about a user.
type Profile struct {
	UserID      string    `json:"user_id"`
	DailyGoalML int       `json:"daily_goal_ml"`
	IsPremium   bool      `json:"is_premium"`
	TimeZone    string    `json:"time_zone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the user id, goal and time zone.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrMissingUser
	}
	if p.DailyGoalML <= 0 {
		return ErrInvalidGoal
	}
	if p.TimeZone != "" {
		if _, err := time.LoadLocation(p.TimeZone); err != nil {
			return ErrInvalidTimeZone
		}
	}
	return nil
}

// GoalFor returns the personalized goal for premium users with a positive
// goal and defaultGoal otherwise. A nil profile gets defaultGoal.
func (p *Profile) GoalFor(defaultGoal int) int {
	if p != nil && p.IsPremium && p.DailyGoalML > 0 {
		return p.DailyGoalML
	}
	return defaultGoal
}
