// Package render provides output formatting for CLI commands.
// Separates presentation from business logic.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Writer wraps an io.Writer with formatting utilities.
// Use this for direct-to-stdout writing without string building.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer that writes to the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Stdout returns a Writer that writes to os.Stdout.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

// Stderr returns a Writer that writes to os.Stderr.
func Stderr() *Writer {
	return NewWriter(os.Stderr)
}

// Print writes formatted text.
func (w *Writer) Print(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes formatted text with newline.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Line writes a blank line.
func (w *Writer) Line() {
	fmt.Fprintln(w.out)
}

// Header writes a header line.
func (w *Writer) Header(title string, args ...any) {
	if len(args) > 0 {
		title = fmt.Sprintf(title, args...)
	}
	fmt.Fprintln(w.out, strings.ToUpper(title))
	fmt.Fprintln(w.out)
}

// Item writes an indented item line.
func (w *Writer) Item(format string, args ...any) {
	fmt.Fprintf(w.out, "  "+format+"\n", args...)
}

// Empty writes an empty state message.
func (w *Writer) Empty(msg string) {
	fmt.Fprintln(w.out, msg)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// StatusIcon returns icon for a plan status.
func StatusIcon(status string) string {
	switch status {
	case "draft":
		return "○"
	case "approved":
		return "◐"
	case "completed":
		return "●"
	default:
		return "•"
	}
}

// BoolIcon returns icon for boolean.
func BoolIcon(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}

// FormatTime formats a unix timestamp in local time. Zero renders as "-".
func FormatTime(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).Local().Format("2006-01-02 15:04")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
