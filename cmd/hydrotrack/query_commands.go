package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/analytics"
	"github.com/0xmhha/hydrotrack/pkg/insight"
	"github.com/0xmhha/hydrotrack/pkg/parser"
)

var errUserRequired = errors.New("-user is required")

// queryFlags are shared by the read-only commands.
type queryFlags struct {
	userID  string
	tz      string
	format  string
	compact bool
}

func (q *queryFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&q.userID, "user", "", "user id")
	fs.StringVar(&q.tz, "tz", "", "IANA time zone")
	fs.StringVar(&q.format, "format", "", "output format (table, json, simple)")
	fs.BoolVar(&q.compact, "compact", false, "compact output")
}

func (q *queryFlags) validate() error {
	if strings.TrimSpace(q.userID) == "" {
		return errUserRequired
	}
	return nil
}

// summaryCommand displays a calendar period summary.
type summaryCommand struct {
	queryFlags
	period string
	date   string
}

func parseSummaryArgs(args []string) (*summaryCommand, error) {
	cmd := &summaryCommand{}
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	cmd.register(fs)
	fs.StringVar(&cmd.period, "period", "daily", "period (daily, weekly, monthly)")
	fs.StringVar(&cmd.date, "date", "", "reference date YYYY-MM-DD (default today)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func runSummaryCommand(configPath string, args []string, out io.Writer) error {
	cmd, err := parseSummaryArgs(args)
	if err != nil {
		return err
	}

	a, err := newApp(configPath, out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	formatter, err := a.formatter(cmd.format, cmd.compact)
	if err != nil {
		return err
	}

	sum, err := a.service.Summary(context.Background(), analytics.SummaryRequest{
		UserID:   cmd.userID,
		Period:   cmd.period,
		Date:     cmd.date,
		TimeZone: cmd.tz,
	})
	if err != nil {
		return err
	}
	return formatter.FormatSummary(out, sum)
}

// trendsCommand compares the current period with the previous one.
type trendsCommand struct {
	queryFlags
	period string
}

func parseTrendsArgs(args []string) (*trendsCommand, error) {
	cmd := &trendsCommand{}
	fs := flag.NewFlagSet("trends", flag.ContinueOnError)
	cmd.register(fs)
	fs.StringVar(&cmd.period, "period", "weekly", "period (daily, weekly, monthly, annual)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func runTrendsCommand(configPath string, args []string, out io.Writer) error {
	cmd, err := parseTrendsArgs(args)
	if err != nil {
		return err
	}

	a, err := newApp(configPath, out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	formatter, err := a.formatter(cmd.format, cmd.compact)
	if err != nil {
		return err
	}

	res, err := a.service.Trend(context.Background(), analytics.TrendRequest{
		UserID:   cmd.userID,
		Period:   cmd.period,
		TimeZone: cmd.tz,
	})
	if err != nil {
		return err
	}
	return formatter.FormatTrend(out, res)
}

// insightsCommand displays the insight report.
type insightsCommand struct {
	queryFlags
	days int
}

func parseInsightsArgs(args []string) (*insightsCommand, error) {
	cmd := &insightsCommand{}
	fs := flag.NewFlagSet("insights", flag.ContinueOnError)
	cmd.register(fs)
	fs.IntVar(&cmd.days, "days", 0, "analysis length in days (default from config)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	var daysErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "days" {
			daysErr = insight.CheckDays(cmd.days)
		}
	})
	if daysErr != nil {
		return nil, daysErr
	}
	return cmd, nil
}

func runInsightsCommand(configPath string, args []string, out io.Writer) error {
	cmd, err := parseInsightsArgs(args)
	if err != nil {
		return err
	}

	a, err := newApp(configPath, out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	formatter, err := a.formatter(cmd.format, cmd.compact)
	if err != nil {
		return err
	}

	report, err := a.service.Insights(context.Background(), analytics.InsightRequest{
		UserID:   cmd.userID,
		Days:     cmd.days,
		TimeZone: cmd.tz,
	})
	if err != nil {
		return err
	}
	return formatter.FormatInsights(out, report)
}

// recordCommand stores one drink.
type recordCommand struct {
	line   parser.Line
	format string
}

func parseRecordArgs(args []string, now time.Time) (*recordCommand, error) {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	userID := fs.String("user", "", "user id")
	id := fs.String("id", "", "record id (default random)")
	amount := fs.Int("amount", 0, "amount in ml")
	beverage := fs.String("beverage", "water", "beverage name")
	factor := fs.Float64("factor", -1, "hydration factor (default from the beverage catalog)")
	at := fs.String("at", "", "when it was drunk, RFC 3339 (default now)")
	thirst := fs.Int("thirst", 0, "thirst level 1-5")
	mood := fs.String("mood", "", "mood")
	notes := fs.String("notes", "", "notes")
	location := fs.String("location", "", "where it was drunk")
	format := fs.String("format", "", "output format (table, json, simple)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(*userID) == "" {
		return nil, errUserRequired
	}

	occurredAt := now
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return nil, fmt.Errorf("invalid -at %q: use RFC 3339, e.g. 2024-03-30T08:00:00+01:00", *at)
		}
		occurredAt = t
	}

	bev := &parser.BeverageLine{Name: *beverage}
	if *factor >= 0 {
		f := *factor
		bev.HydrationFactor = &f
	}

	cmd := &recordCommand{
		line: parser.Line{
			ID:         *id,
			UserID:     *userID,
			Beverage:   bev,
			AmountML:   *amount,
			OccurredAt: occurredAt,
			Mood:       *mood,
			Notes:      *notes,
			Location:   *location,
		},
		format: *format,
	}
	if *thirst != 0 {
		level := *thirst
		cmd.line.ThirstLevel = &level
	}
	return cmd, nil
}

func runRecordCommand(configPath string, args []string, out io.Writer) error {
	cmd, err := parseRecordArgs(args, time.Now())
	if err != nil {
		return err
	}

	a, err := newApp(configPath, out, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	formatter, err := a.formatter(cmd.format, false)
	if err != nil {
		return err
	}

	stored, err := a.service.RecordConsumption(context.Background(), cmd.line.Consumption())
	if err != nil && !errors.Is(err, analytics.ErrSnapshotRecompute) {
		return err
	}
	if err != nil {
		a.log.Warn("record stored but its daily snapshot is stale", "error", err)
	}
	return formatter.FormatConsumption(out, stored)
}

// snapshotCommand shows or rebuilds daily snapshots.
type snapshotCommand struct {
	configPath string
	out        io.Writer
}

func runSnapshotCommand(configPath string, args []string, out io.Writer) error {
	cmd := &snapshotCommand{configPath: configPath, out: out}
	return cmd.Execute(args)
}

// Execute runs the snapshot command with given arguments.
func (c *snapshotCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "show":
		return c.run(args[1:], false)
	case "recompute":
		return c.run(args[1:], true)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown snapshot subcommand: %s", args[0])
	}
}

func (c *snapshotCommand) run(args []string, recompute bool) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	userID := fs.String("user", "", "user id")
	date := fs.String("date", "", "local date YYYY-MM-DD (default today in the user's zone)")
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

	ctx := context.Background()
	day := *date
	if day == "" {
		p, err := a.service.Profile(ctx, *userID)
		if err != nil {
			return err
		}
		loc, _ := a.resolver.Location(p.TimeZone)
		day = a.resolver.Today(loc).String()
	}

	if recompute {
		snap, err := a.service.RecomputeDay(ctx, *userID, day)
		if err != nil {
			return err
		}
		return formatter.FormatSnapshot(c.out, snap)
	}

	snap, err := a.service.DailySnapshot(ctx, *userID, day)
	if err != nil {
		return err
	}
	return formatter.FormatSnapshot(c.out, snap)
}

func (c *snapshotCommand) showHelp() error {
	help := `Snapshot - Daily goal snapshots

Usage:
  hydrotrack snapshot <subcommand> -user <id> [-date YYYY-MM-DD]

Subcommands:
  show        Display the stored snapshot of a day
  recompute   Rebuild the snapshot of a day from its records

Flags:
  -user       User id (required)
  -date       Local date (default today in the user's zone)
  -format     Output format (table, json, simple)
`
	_, err := fmt.Fprint(c.out, help)
	return err
}
