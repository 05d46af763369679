package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/discovery"
	"github.com/0xmhha/hydrotrack/pkg/display"
	"github.com/0xmhha/hydrotrack/pkg/ingest"
	"github.com/0xmhha/hydrotrack/pkg/parser"
	"github.com/0xmhha/hydrotrack/pkg/reader"
	"github.com/0xmhha/hydrotrack/pkg/watcher"
)

// ingestFlags are shared by import and watch.
type ingestFlags struct {
	inboxes   stringList
	fromStart bool
	format    string
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return fmt.Sprint([]string(*s))
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseIngestArgs(name string, args []string) (*ingestFlags, error) {
	cmd := &ingestFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Var(&cmd.inboxes, "inbox", "inbox directory (repeatable, default from config)")
	fs.BoolVar(&cmd.fromStart, "from-start", false, "forget stored offsets and read every file from the beginning")
	fs.StringVar(&cmd.format, "format", "", "output format (table, json, simple)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cmd, nil
}

// newPipeline wires discovery, the offset-tracking reader and the watcher
// to the analytics service.
func (a *app) newPipeline(inboxes []string) (ingest.Pipeline, discovery.Discoverer, reader.Reader, error) {
	if len(inboxes) == 0 {
		inboxes = a.cfg.Ingest.InboxDirs
	}
	log := a.log.With("component", "ingest")

	positions, err := reader.NewBoltPositionStore(a.store.DB())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open offset store: %w", err)
	}

	r, err := reader.New(reader.Config{
		PositionStore: positions,
		Parser:        parser.New(log, time.Now),
	}, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create reader: %w", err)
	}

	w, err := watcher.New(watcher.Config{DebounceInterval: a.cfg.Ingest.DebounceInterval}, log)
	if err != nil {
		_ = r.Close() //nolint:errcheck // best effort cleanup
		return nil, nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	disc := discovery.New(inboxes, log)

	var m ingest.Metrics
	if a.metrics != nil {
		m = a.metrics
	}

	p, err := ingest.New(ingest.Config{RefreshInterval: a.cfg.Ingest.RefreshInterval}, w, r, disc, a.service, m, log)
	if err != nil {
		_ = w.Close() //nolint:errcheck // best effort cleanup
		_ = r.Close() //nolint:errcheck // best effort cleanup
		return nil, nil, nil, err
	}
	return p, disc, r, nil
}

func runImportCommand(configPath string, args []string, out io.Writer) error {
	cmd, err := parseIngestArgs("import", args)
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

	p, disc, r, err := a.newPipeline(cmd.inboxes)
	if err != nil {
		return err
	}
	defer p.Close()

	// Import reports from the return values; the channel only needs draining.
	go func() {
		for range p.Updates() { //nolint:revive // drain
		}
	}()

	files, err := disc.Discover()
	if err != nil {
		return fmt.Errorf("failed to discover inbox files: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, f := range files {
		if cmd.fromStart {
			if err := r.Reset(f.Path); err != nil {
				return fmt.Errorf("failed to reset offset of %s: %w", f.Path, err)
			}
		}

		u, err := p.Ingest(ctx, f.Path)
		if err != nil {
			return err
		}
		if u.Stored+u.Duplicates+u.Rejected+u.Skipped == 0 {
			continue
		}
		if err := formatter.FormatUpdate(out, u); err != nil {
			return err
		}
	}

	totals := p.Totals()
	if f, _ := display.ParseFormat(a.outputFormat(cmd.format)); f == display.FormatJSON {
		return nil
	}
	_, err = fmt.Fprintf(out, "Imported %d files: %d stored, %d duplicates, %d rejected, %d skipped\n",
		totals.Files, totals.Stored, totals.Duplicates, totals.Rejected, totals.Skipped)
	return err
}

func runWatchCommand(configPath string, args []string, out io.Writer) error {
	cmd, err := parseIngestArgs("watch", args)
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

	p, disc, r, err := a.newPipeline(cmd.inboxes)
	if err != nil {
		return err
	}
	defer p.Close()

	if cmd.fromStart {
		if err := resetOffsets(disc, r); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start ingests existing files before it returns, so the drain must run first.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range p.Updates() {
			if err := formatter.FormatUpdate(out, u); err != nil {
				a.log.Warn("failed to print update", "error", err)
			}
		}
	}()

	fmt.Fprintf(out, "Watching %v (Ctrl+C to stop)\n", disc.Dirs())
	if err := p.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	if err := p.Close(); err != nil {
		a.log.Warn("failed to close ingest pipeline", "error", err)
	}
	<-done
	return nil
}

func resetOffsets(disc discovery.Discoverer, r reader.Reader) error {
	files, err := disc.Discover()
	if err != nil {
		return fmt.Errorf("failed to discover inbox files: %w", err)
	}
	for _, f := range files {
		if err := r.Reset(f.Path); err != nil {
			return fmt.Errorf("failed to reset offset of %s: %w", f.Path, err)
		}
	}
	return nil
}
