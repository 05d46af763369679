// Package main provides the hydrotrack CLI application.
//
// hydrotrack records drinks, serves hydration summaries, trends and insights
// over HTTP, and imports JSONL records dropped into inbox directories.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("hydrotrack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "path to configuration file")
	showVersion := fs.Bool("version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return showUsage(out)
		}
		return err
	}

	if *showVersion {
		fmt.Fprintf(out, "hydrotrack %s\n", version)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return showUsage(out)
	}

	command, cmdArgs := rest[0], rest[1:]

	switch command {
	case "serve":
		return runServeCommand(*configPath, cmdArgs, out)
	case "summary":
		return runSummaryCommand(*configPath, cmdArgs, out)
	case "trends":
		return runTrendsCommand(*configPath, cmdArgs, out)
	case "insights":
		return runInsightsCommand(*configPath, cmdArgs, out)
	case "record":
		return runRecordCommand(*configPath, cmdArgs, out)
	case "import":
		return runImportCommand(*configPath, cmdArgs, out)
	case "watch":
		return runWatchCommand(*configPath, cmdArgs, out)
	case "snapshot":
		return runSnapshotCommand(*configPath, cmdArgs, out)
	case "profile":
		return runProfileCommand(*configPath, cmdArgs, out)
	case "config":
		cmd := &configCommand{configPath: *configPath, out: out}
		return cmd.Execute(cmdArgs)
	case "help":
		return showUsage(out)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// showUsage displays usage information.
func showUsage(out io.Writer) error {
	usage := `hydrotrack - hydration tracking and analytics

Usage:
  hydrotrack [flags] <command> [command flags]

Commands:
  serve       Run the HTTP API (optionally with inbox ingest)
  summary     Show a daily, weekly or monthly summary
  trends      Compare the current period with the previous one
  insights    Show consistency, efficiency and habit insights
  record      Record a drink
  import      Import new records from inbox JSONL files once
  watch       Import inbox files continuously
  snapshot    Daily snapshots (show, recompute)
  profile     User profiles (set, show, list, delete)
  config      Configuration management (show, path, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Query Flags (summary, trends, insights):
  -user       User id (required)
  -period     summary: daily, weekly, monthly; trends: daily, weekly, monthly, annual
  -date       summary reference date (YYYY-MM-DD, default today)
  -days       insights length in days (1-365)
  -tz         IANA time zone (default from config)
  -format     Output format (table, json, simple)
  -compact    Compact output

Examples:
  # Record 300 ml of coffee now
  hydrotrack record -user alice -amount 300 -beverage coffee

  # This week's summary in Berlin time
  hydrotrack summary -user alice -period weekly -tz Europe/Berlin

  # Monthly trend as JSON
  hydrotrack trends -user alice -period monthly -format json

  # Last 14 days of insights
  hydrotrack insights -user alice -days 14

  # Serve the API and ingest inbox drops
  hydrotrack serve -ingest

  # Re-import every inbox file from the beginning
  hydrotrack import -from-start

  # Personalize a premium user's goal
  hydrotrack profile set -user alice -goal 2500 -premium -tz Europe/Berlin

Version: %s
`

	_, err := fmt.Fprintf(out, usage, version)
	return err
}
