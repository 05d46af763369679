// Package ingest imports consumption logs dropped into inbox directories.
//
// On start every discovered log is read from its stored offset; afterwards
// watcher events trigger incremental reads, and a periodic rescan catches
// files the watcher could not see. Each record goes through a Recorder,
// which validates it, stores it and refreshes the day's snapshot.
//
// Example usage:
//
//	p, err := ingest.New(ingest.Config{RefreshInterval: time.Minute},
//	    w, r, discovery.New(cfg.Ingest.InboxDirs, log), svc, m, log)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	if err := p.Start(ctx); err != nil {
//	    return err
//	}
//	for u := range p.Updates() {
//	    fmt.Printf("%s: %d stored, %d rejected\n", u.Path, u.Stored, u.Rejected)
//	}
package ingest

import (
	"context"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/model"
)

// Recorder stores a single consumption. analytics.Service implements it.
type Recorder interface {
	RecordConsumption(ctx context.Context, c model.Consumption) (model.Consumption, error)
}

// Metrics receives ingest counters. metrics.Metrics implements it; nil is allowed.
type Metrics interface {
	RecordIngest(stored, rejected int)
}

// Config holds the pipeline configuration.
type Config struct {
	// RefreshInterval is the period of the inbox rescan. Default: 1s.
	RefreshInterval time.Duration
}

// Pipeline imports logs continuously.
type Pipeline interface {
	// Start performs the initial import, then watches the inboxes.
	// It returns once watching has begun.
	Start(ctx context.Context) error

	// Stop ends watching. Updates stays open until Close.
	Stop() error

	// Ingest reads the new part of one file and records its lines.
	//
	// It stops at the first record the store cannot take and returns that
	// error; the line and everything after it are read again by the next
	// call for the file.
	Ingest(ctx context.Context, path string) (Update, error)

	// Updates delivers one Update per file read that found new lines.
	Updates() <-chan Update

	// Totals returns the counters since the pipeline was created.
	Totals() Totals

	// Close stops the pipeline and closes Updates.
	Close() error
}

// Update describes the outcome of one file read.
type Update struct {
	Timestamp time.Time
	Path      string

	// Stored counts records accepted by the Recorder.
	Stored int

	// Duplicates counts records whose id was already stored.
	Duplicates int

	// Rejected counts records the Recorder refused.
	Rejected int

	// Skipped counts lines the parser could not turn into a record.
	Skipped int

	// Users lists the owners of stored records, sorted.
	Users []string
}

// Totals accumulates Update counters.
type Totals struct {
	Files      int
	Stored     int
	Duplicates int
	Rejected   int
	Skipped    int
}

func (t *Totals) add(u Update) {
	t.Files++
	t.Stored += u.Stored
	t.Duplicates += u.Duplicates
	t.Rejected += u.Rejected
	t.Skipped += u.Skipped
}
