package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/0xmhha/hydrotrack/pkg/logger"
	"github.com/0xmhha/hydrotrack/pkg/model"
	"github.com/google/uuid"
)

const (
	// MaxFileSize is the maximum allowed JSONL file size (100MB).
	MaxFileSize = 100 * 1024 * 1024

	// MaxLineLength is the maximum allowed line length (1MB).
	MaxLineLength = 1024 * 1024
)

// lineNamespace derives the ids of lines that carry none, so that reading
// the same line twice yields the same record.
var lineNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/0xmhha/hydrotrack/line"))

// Parser parses consumption logs.
type Parser interface {
	// ParseFile reads complete lines of path starting at offset.
	//
	// A trailing line without a newline is consumed only if it parses;
	// otherwise it is treated as a write in progress and Offset stops in
	// front of it.
	//
	// Thread-safety: safe to call concurrently with different files.
	ParseFile(path string, offset int64) (Result, error)

	// ParseLine parses and validates a single line (without newline).
	// A line without an id gets one derived from its content.
	ParseLine(line []byte) (model.Consumption, error)
}

type jsonlParser struct {
	logger logger.Logger
	now    func() time.Time
}

// New creates a parser. now is used to reject future timestamps.
func New(log logger.Logger, now func() time.Time) Parser {
	if now == nil {
		now = time.Now
	}
	return &jsonlParser{logger: log, now: now}
}

// ParseFile implements Parser.ParseFile.
func (p *jsonlParser) ParseFile(path string, offset int64) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return Result{}, fmt.Errorf("%w: size=%d, max=%d", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	// #nosec G304: path comes from inbox discovery
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return Result{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			p.logger.Warn("failed to close file", "path", path, "error", closeErr)
		}
	}()

	if offset > 0 {
		if _, seekErr := f.Seek(offset, io.SeekStart); seekErr != nil {
			return Result{}, fmt.Errorf("failed to seek to offset %d: %w", offset, seekErr)
		}
	}

	source := path
	if abs, absErr := filepath.Abs(path); absErr == nil {
		source = abs
	}

	res := Result{Records: make([]model.Consumption, 0, 64), Start: offset, Offset: offset}
	br := bufio.NewReaderSize(f, 64*1024)
	lineNum := 0

	for {
		raw, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return res, fmt.Errorf("read error after line %d: %w", lineNum, readErr)
		}
		if len(raw) == 0 {
			break
		}

		terminated := raw[len(raw)-1] == '\n'
		lineNum++
		line := bytes.TrimSpace(raw)

		if len(line) > MaxLineLength {
			p.skip(&res, path, &ParseError{Line: lineNum, Data: string(line[:100]), Err: ErrMalformedJSON})
			res.Offset += int64(len(raw))
			continue
		}

		// Blank lines are consumed silently.
		if len(line) > 0 {
			c, parseErr := p.parse(line, lineSeed(source, res.Offset, line))
			switch {
			case parseErr == nil:
				res.Records = append(res.Records, c)
				res.Starts = append(res.Starts, res.Offset)
			case !terminated && errors.Is(parseErr, ErrMalformedJSON):
				return res, nil
			default:
				p.skip(&res, path, withLine(parseErr, lineNum, line))
			}
		}

		res.Offset += int64(len(raw))
		if !terminated {
			break
		}
	}

	return res, nil
}

// ParseLine implements Parser.ParseLine.
func (p *jsonlParser) ParseLine(line []byte) (model.Consumption, error) {
	return p.parse(line, bytes.TrimSpace(line))
}

// parse decodes one line. seed names the line when it has no id of its own.
func (p *jsonlParser) parse(line, seed []byte) (model.Consumption, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return model.Consumption{}, fmt.Errorf("%w: empty line", ErrMalformedJSON)
	}

	var l Line
	if err := json.Unmarshal(line, &l); err != nil {
		return model.Consumption{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if l.ID == "" {
		l.ID = uuid.NewSHA1(lineNamespace, seed).String()
	}

	c := l.Consumption()
	if err := c.Validate(p.now()); err != nil {
		return model.Consumption{}, &ValidationError{UserID: c.UserID, Err: err}
	}
	return c, nil
}

// lineSeed identifies a line by file, position and content. A file rewritten
// in place with different content yields new ids.
func lineSeed(path string, offset int64, line []byte) []byte {
	seed := make([]byte, 0, len(path)+len(line)+24)
	seed = append(seed, path...)
	seed = append(seed, 0)
	seed = strconv.AppendInt(seed, offset, 10)
	seed = append(seed, 0)
	return append(seed, line...)
}

func (p *jsonlParser) skip(res *Result, path string, err error) {
	res.Skipped++
	p.logger.Warn("skipping line", "path", path, "error", err)
}

func withLine(err error, lineNum int, line []byte) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.Line = lineNum
		return verr
	}
	return &ParseError{Line: lineNum, Data: string(line), Err: err}
}
