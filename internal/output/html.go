package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// HTMLWriter writes the HTML body of each item followed by a newline.
// Items must be strings or implement HTMLer.
type HTMLWriter struct {
	w *bufio.Writer
}

// NewHTMLWriter creates an HTML writer.
func NewHTMLWriter(w io.Writer) *HTMLWriter {
	return &HTMLWriter{w: bufio.NewWriter(w)}
}

// Write writes one item.
func (w *HTMLWriter) Write(data any) error {
	var body string
	switch v := data.(type) {
	case string:
		body = v
	case HTMLer:
		body = v.HTML()
	default:
		return fmt.Errorf("html output: unsupported item type %T", data)
	}
	if _, err := w.w.WriteString(strings.TrimRight(body, "\n") + "\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes every item.
func (w *HTMLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *HTMLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *HTMLWriter) Close() error {
	return w.Flush()
}
