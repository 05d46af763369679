package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// profileCommand handles profile subcommands.
type profileCommand struct {
	configPath string
	out        io.Writer
}

func runProfileCommand(configPath string, args []string, out io.Writer) error {
	cmd := &profileCommand{configPath: configPath, out: out}
	return cmd.Execute(args)
}

// Execute runs the profile command with given arguments.
func (c *profileCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "set":
		return c.set(args[1:])
	case "show":
		return c.show(args[1:])
	case "list":
		return c.list(args[1:])
	case "delete":
		return c.delete(args[1:])
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown profile subcommand: %s", args[0])
	}
}

// profileUpdate holds the fields set on the command line. Unset fields keep
// their stored values.
type profileUpdate struct {
	userID  string
	goal    *int
	premium *bool
	tz      *string
	format  string
}

func parseProfileSetArgs(args []string) (*profileUpdate, error) {
	fs := flag.NewFlagSet("profile set", flag.ContinueOnError)
	userID := fs.String("user", "", "user id")
	goal := fs.Int("goal", 0, "daily goal in ml")
	premium := fs.Bool("premium", false, "premium subscription")
	tz := fs.String("tz", "", "preferred IANA time zone (empty clears it)")
	format := fs.String("format", "", "output format (table, json, simple)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(*userID) == "" {
		return nil, errUserRequired
	}

	u := &profileUpdate{userID: *userID, format: *format}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "goal":
			u.goal = goal
		case "premium":
			u.premium = premium
		case "tz":
			u.tz = tz
		}
	})
	return u, nil
}

// apply merges u into p. A profile without a goal gets defaultGoal.
func (u *profileUpdate) apply(p *model.Profile, defaultGoal int) {
	p.UserID = u.userID
	if u.goal != nil {
		p.DailyGoalML = *u.goal
	}
	if p.DailyGoalML == 0 && u.goal == nil {
		p.DailyGoalML = defaultGoal
	}
	if u.premium != nil {
		p.IsPremium = *u.premium
	}
	if u.tz != nil {
		p.TimeZone = strings.TrimSpace(*u.tz)
	}
}

func (c *profileCommand) set(args []string) error {
	u, err := parseProfileSetArgs(args)
	if err != nil {
		return err
	}

	a, err := newApp(c.configPath, c.out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	formatter, err := a.formatter(u.format, false)
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := a.service.Profile(ctx, u.userID)
	if err != nil {
		return err
	}
	u.apply(p, a.service.DefaultGoal())

	if err := a.service.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return formatter.FormatProfiles(c.out, []*model.Profile{p})
}

func (c *profileCommand) show(args []string) error {
	fs := flag.NewFlagSet("profile show", flag.ContinueOnError)
	userID := fs.String("user", "", "user id")
	format := fs.String("format", "", "output format (table, json, simple)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*userID) == "" {
		return errUserRequired
	}

	a, err := newApp(c.configPath, c.out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	formatter, err := a.formatter(*format, false)
	if err != nil {
		return err
	}

	p, err := a.profiles.Get(context.Background(), *userID)
	if err != nil {
		return err
	}
	return formatter.FormatProfiles(c.out, []*model.Profile{p})
}

func (c *profileCommand) list(args []string) error {
	fs := flag.NewFlagSet("profile list", flag.ContinueOnError)
	format := fs.String("format", "", "output format (table, json, simple)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(c.configPath, c.out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	formatter, err := a.formatter(*format, false)
	if err != nil {
		return err
	}

	profiles, err := a.profiles.List(context.Background())
	if err != nil {
		return err
	}
	return formatter.FormatProfiles(c.out, profiles)
}

func (c *profileCommand) delete(args []string) error {
	fs := flag.NewFlagSet("profile delete", flag.ContinueOnError)
	userID := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*userID) == "" {
		return errUserRequired
	}

	a, err := newApp(c.configPath, c.out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.profiles.Delete(context.Background(), *userID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	_, err = fmt.Fprintf(c.out, "Profile %s deleted\n", *userID)
	return err
}

func (c *profileCommand) showHelp() error {
	help := `Profile - User goals, subscription and time zone

Usage:
  hydrotrack profile <subcommand> [flags]

Subcommands:
  set       Create or update a profile (unset flags keep stored values)
  show      Display one profile
  list      List all profiles
  delete    Delete a profile

Flags (set):
  -user       User id (required)
  -goal       Daily goal in ml (only premium users' goals are applied)
  -premium    Premium subscription (-premium=false to revoke)
  -tz         Preferred IANA time zone
`
	_, err := fmt.Fprint(c.out, help)
	return err
}
