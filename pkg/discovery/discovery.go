// Package discovery finds consumption log files in inbox directories.
//
// An inbox is scanned recursively for *.jsonl files. Hidden files and
// directories (leading dot) are skipped, which lets producers write to
// ".name.jsonl" and rename into place when done.
//
// Example usage:
//
//	d := discovery.New([]string{"~/hydrotrack/inbox"}, log)
//	files, err := d.Discover()
//	if err != nil {
//	    return err
//	}
//	for _, f := range files {
//	    fmt.Println(f.Path, f.Size)
//	}
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Extension is the suffix of consumption log files.
const Extension = ".jsonl"

// Logger defines the logging interface used by the discovery package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// InboxFile is a discovered log file.
type InboxFile struct {
	// Path is the absolute path to the file.
	Path string

	// Inbox is the configured directory the file was found under.
	Inbox string

	Size    int64
	ModTime time.Time
}

// Discoverer finds log files.
type Discoverer interface {
	// Discover scans every configured inbox. Missing inboxes are skipped
	// with a warning. Results are sorted by path.
	Discover() ([]InboxFile, error)

	// DiscoverDir scans one directory, which must exist.
	DiscoverDir(dir string) ([]InboxFile, error)

	// Dirs returns the configured inboxes with ~ expanded.
	Dirs() []string
}

type discoverer struct {
	inboxes []string
	logger  Logger
}

// New creates a Discoverer for the given inbox directories.
func New(inboxes []string, logger Logger) Discoverer {
	expanded := make([]string, 0, len(inboxes))
	for _, dir := range inboxes {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded = append(expanded, ExpandHome(dir))
	}
	return &discoverer{inboxes: expanded, logger: logger}
}

// Dirs implements Discoverer.Dirs.
func (d *discoverer) Dirs() []string {
	out := make([]string, len(d.inboxes))
	copy(out, d.inboxes)
	return out
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]InboxFile, error) {
	var all []InboxFile

	for _, inbox := range d.inboxes {
		files, err := d.DiscoverDir(inbox)
		if errors.Is(err, ErrInboxNotFound) {
			d.logger.Warn("inbox not found, skipping", "path", inbox)
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })

	d.logger.Info("discovery complete", "inboxes", len(d.inboxes), "files", len(all))
	return all, nil
}

// DiscoverDir implements Discoverer.DiscoverDir.
func (d *discoverer) DiscoverDir(dir string) ([]InboxFile, error) {
	dir = ExpandHome(dir)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInboxNotFound, abs)
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	files := make([]InboxFile, 0, 16)
	walkErr := filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("failed to read inbox entry", "path", path, "error", err)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path != abs && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !IsLogFile(path) {
			return nil
		}

		fi, infoErr := entry.Info()
		if infoErr != nil {
			d.logger.Warn("failed to get file info", "path", path, "error", infoErr)
			return nil
		}

		files = append(files, InboxFile{
			Path:    path,
			Inbox:   abs,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", abs, walkErr)
	}

	d.logger.Debug("scanned inbox", "path", abs, "files", len(files))
	return files, nil
}

// IsLogFile reports whether path names a visible *.jsonl file.
func IsLogFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, Extension) && !strings.HasPrefix(base, ".")
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return homeDir
	}
	return filepath.Join(homeDir, path[2:])
}
