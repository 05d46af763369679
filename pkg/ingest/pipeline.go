package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/analytics"
	"github.com/0xmhha/hydrotrack/pkg/discovery"
	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/reader"
	"github.com/0xmhha/hydrotrack/pkg/store"
	"github.com/0xmhha/hydrotrack/pkg/watcher"
)

type pipeline struct {
	config    Config
	logger    logger.Logger
	watcher   watcher.Watcher
	reader    reader.Reader
	discovery discovery.Discoverer
	recorder  Recorder
	metrics   Metrics

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	// ingestMu holds one file read from Read through Commit, so a watcher
	// event and a rescan cannot record the same region twice.
	ingestMu sync.Mutex

	totalsMu sync.Mutex
	totals   Totals

	updates chan Update
}

// New creates an ingest pipeline. m may be nil.
func New(cfg Config, w watcher.Watcher, r reader.Reader, disc discovery.Discoverer, rec Recorder, m Metrics, log logger.Logger) (Pipeline, error) {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Second
	}

	return &pipeline{
		config:    cfg,
		logger:    log.With("component", "ingest"),
		watcher:   w,
		reader:    r,
		discovery: disc,
		recorder:  rec,
		metrics:   m,
		updates:   make(chan Update, 32),
	}, nil
}

// Start implements Pipeline.Start.
func (p *pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPipelineClosed
	}
	if p.running {
		p.mu.Unlock()
		return ErrPipelineRunning
	}
	if len(p.discovery.Dirs()) == 0 {
		p.mu.Unlock()
		return ErrNoInbox
	}
	p.running = true
	p.stopChan = make(chan struct{})
	stop := p.stopChan
	p.mu.Unlock()

	p.rescan(ctx)

	if err := p.watcher.Start(ctx, p.discovery.Dirs()); err != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	p.wg.Add(2)
	go p.processEvents(ctx, stop)
	go p.periodicRescan(ctx, stop)

	p.logger.Info("ingest started", "inboxes", p.discovery.Dirs())
	return nil
}

// Stop implements Pipeline.Stop.
func (p *pipeline) Stop() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPipelineClosed
	}
	if !p.running {
		p.mu.Unlock()
		return ErrPipelineNotRunning
	}
	close(p.stopChan)
	p.running = false
	p.mu.Unlock()

	if err := p.watcher.Stop(); err != nil {
		p.logger.Warn("failed to stop watcher", "error", err)
	}
	p.wg.Wait()

	p.logger.Info("ingest stopped")
	return nil
}

// Updates implements Pipeline.Updates.
func (p *pipeline) Updates() <-chan Update {
	return p.updates
}

// Totals implements Pipeline.Totals.
func (p *pipeline) Totals() Totals {
	p.totalsMu.Lock()
	defer p.totalsMu.Unlock()
	return p.totals
}

// Close implements Pipeline.Close.
func (p *pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if p.running {
		close(p.stopChan)
		p.running = false
	}
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	p.closed = true
	close(p.updates)
	p.mu.Unlock()

	if err := p.watcher.Close(); err != nil {
		p.logger.Warn("failed to close watcher", "error", err)
	}
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("failed to close reader", "error", err)
	}
	return nil
}

// Ingest implements Pipeline.Ingest.
func (p *pipeline) Ingest(ctx context.Context, path string) (Update, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return Update{}, ErrPipelineClosed
	}

	p.ingestMu.Lock()
	defer p.ingestMu.Unlock()

	res, err := p.reader.Read(ctx, path)
	if err != nil {
		return Update{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	u := Update{Timestamp: time.Now(), Path: path, Skipped: res.Skipped}
	users := make(map[string]struct{})

	// commit only moves past records that reached a final outcome.
	commit := res.Offset
	var stopErr error

	for i, rec := range res.Records {
		if err := ctx.Err(); err != nil {
			commit, stopErr = res.Starts[i], err
			break
		}

		stored, recErr := p.recorder.RecordConsumption(ctx, rec)
		switch {
		case recErr == nil || errors.Is(recErr, analytics.ErrSnapshotRecompute):
			// A stale snapshot is repaired by the next write of that day.
			u.Stored++
			users[stored.UserID] = struct{}{}
		case errors.Is(recErr, store.ErrDuplicateRecord):
			u.Duplicates++
		case errors.Is(recErr, store.ErrStoreUnavailable),
			errors.Is(recErr, context.Canceled),
			errors.Is(recErr, context.DeadlineExceeded):
			commit = res.Starts[i]
			stopErr = fmt.Errorf("failed to record %s from %s: %w", rec.ID, path, recErr)
		default:
			u.Rejected++
			p.logger.Warn("record rejected",
				"path", path,
				"user_id", rec.UserID,
				"id", rec.ID,
				"error", recErr)
		}
		if stopErr != nil {
			break
		}
	}

	if err := p.reader.Commit(path, commit); err != nil {
		// The next read repeats the committed region and the store rejects
		// its records as duplicates by id.
		p.logger.Error("failed to commit offset",
			"path", path,
			"offset", commit,
			"error", err)
	}
	if stopErr != nil {
		p.logger.Warn("ingest stopped, remaining lines are read again on the next pass",
			"path", path,
			"offset", commit,
			"error", stopErr)
	}

	for user := range users {
		u.Users = append(u.Users, user)
	}
	sort.Strings(u.Users)

	if p.metrics != nil {
		p.metrics.RecordIngest(u.Stored, u.Rejected+u.Skipped)
	}
	p.totalsMu.Lock()
	p.totals.add(u)
	p.totalsMu.Unlock()

	if u.Stored+u.Duplicates+u.Rejected+u.Skipped > 0 {
		p.logger.Info("file ingested",
			"path", path,
			"stored", u.Stored,
			"duplicates", u.Duplicates,
			"rejected", u.Rejected,
			"skipped", u.Skipped)
		p.publish(u)
	}
	return u, stopErr
}

func (p *pipeline) publish(u Update) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}
	select {
	case p.updates <- u:
	default:
		p.logger.Warn("updates channel full, dropping update", "path", u.Path)
	}
}

func (p *pipeline) rescan(ctx context.Context) {
	files, err := p.discovery.Discover()
	if err != nil {
		p.logger.Warn("inbox discovery failed", "error", err)
		return
	}
	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.Ingest(ctx, f.Path); err != nil {
			p.logger.Warn("failed to ingest file", "path", f.Path, "error", err)
		}
	}
}

func (p *pipeline) processEvents(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-p.watcher.Events():
			if !ok {
				return
			}
			if event.Op == watcher.OpRemove || event.Op == watcher.OpRename {
				continue
			}
			if _, err := p.Ingest(ctx, event.Path); err != nil {
				p.logger.Warn("failed to ingest file after change", "path", event.Path, "error", err)
			}
		case err, ok := <-p.watcher.Errors():
			if !ok {
				return
			}
			p.logger.Error("watcher error", "error", err)
		}
	}
}

func (p *pipeline) periodicRescan(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.rescan(ctx)
		}
	}
}
