package display

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when stdout is not a terminal.
const DefaultWidth = 80

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}
	if cfg.Width <= 0 {
		cfg.Width = TerminalWidth(os.Stdout)
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatTable, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (use table, json or simple)", s)
}

// TerminalWidth returns the column count of f, or DefaultWidth when f is not
// a terminal.
func TerminalWidth(f *os.File) int {
	if f == nil {
		return DefaultWidth
	}
	fd := int(f.Fd()) // nolint:gosec // fd fits in int
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// formatML formats a millilitre amount.
func formatML(n int) string {
	return formatNumber(n) + " ml"
}

// formatFloat formats a float with specified precision.
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// formatPct formats a percentage, or n/a for nil.
func formatPct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *p)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// progressBar draws pct (0..100) as a bar that fits in width columns
// including the trailing percentage.
func progressBar(pct float64, width int) string {
	label := fmt.Sprintf(" %6.2f%%", pct)

	barWidth := width - len(label) - 2
	if barWidth > 50 {
		barWidth = 50
	}
	if barWidth < 10 {
		barWidth = 10
	}

	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(barWidth))

	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]" + label
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
