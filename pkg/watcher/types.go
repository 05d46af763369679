// Package watcher reports changes to consumption log files in inbox
// directories.
//
// It wraps fsnotify, follows newly created subdirectories and debounces
// bursts of writes to one file into a single event.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{DebounceInterval: 100 * time.Millisecond}, log)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"~/hydrotrack/inbox"}); err != nil {
//	    return err
//	}
//	for event := range w.Events() {
//	    fmt.Printf("%s %s\n", event.Op, event.Path)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event is a debounced change to one log file.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start watches paths and their subdirectories. It returns once the
	// watches are in place; events are delivered until ctx is done, Stop
	// or Close is called.
	Start(ctx context.Context, paths []string) error

	// Stop ends event processing. The channels stay open until Close.
	Stop() error

	// Events returns the debounced event channel. Events are dropped with a
	// warning when the consumer falls behind by more than the buffer size.
	Events() <-chan Event

	// Errors returns non-fatal watcher errors.
	Errors() <-chan error

	// Close stops the watcher, closes both channels and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the quiet time required before a file's event is
	// emitted. Default: 100ms.
	DebounceInterval time.Duration

	// CircuitBreakerThreshold is the number of consecutive fsnotify errors
	// after which ErrCircuitBreakerOpen is reported. Default: 5.
	CircuitBreakerThreshold int

	// BufferSize is the capacity of the events channel. Default: 100.
	BufferSize int

	// Filter selects the files that produce events.
	// Default: discovery.IsLogFile.
	Filter func(path string) bool
}
