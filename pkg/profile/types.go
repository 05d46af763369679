// Package profile stores the per-user settings the analytics engines read:
// daily goal, premium flag and preferred time zone.
//
// Account management and billing live elsewhere; from this service's point
// of view a profile is a small record looked up by user id.
//
// Example usage:
//
//	profiles, err := profile.New(st.DB(), log, time.Now)
//	if err != nil {
//	    return err
//	}
//	if err := profiles.Save(ctx, &model.Profile{
//	    UserID:      "user-1",
//	    DailyGoalML: 2500,
//	    IsPremium:   true,
//	    TimeZone:    "Europe/Madrid",
//	}); err != nil {
//	    return err
//	}
//
//	p, _ := profiles.Lookup(ctx, "user-1")
//	goal := p.GoalFor(2000) // 2500
package profile

import (
	"context"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// Store provides profile CRUD operations.
type Store interface {
	// Create stores a new profile.
	//
	// Returns error if:
	//   - The profile fails validation
	//   - A profile already exists for the user
	//   - Database operation fails
	Create(ctx context.Context, p *model.Profile) error

	// Get returns the stored profile or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*model.Profile, error)

	// Update replaces an existing profile, preserving CreatedAt.
	Update(ctx context.Context, p *model.Profile) error

	// Save creates or updates the profile.
	Save(ctx context.Context, p *model.Profile) error

	// Delete removes a profile. Deleting a missing profile is not an error.
	Delete(ctx context.Context, userID string) error

	// List returns all profiles ordered by user id.
	List(ctx context.Context) ([]*model.Profile, error)

	// Lookup returns the stored profile, or a non-premium profile with no
	// personal goal when none exists.
	Lookup(ctx context.Context, userID string) (*model.Profile, error)
}
