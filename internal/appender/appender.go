package appender

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"accesslogd/internal/accesslog"
)

// Writer appends encoded events to an io.Writer, one at a time.
type Writer struct {
	name string
	enc  Encoder

	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	closed bool
}

var _ accesslog.Appender = (*Writer)(nil)

// NewWriter creates an appender writing to out. out is not closed by Close.
func NewWriter(name string, out io.Writer, enc Encoder) *Writer {
	return &Writer{name: name, out: out, enc: enc}
}

// NewConsole creates an appender writing to stdout.
func NewConsole(name string, enc Encoder) *Writer {
	return NewWriter(name, os.Stdout, enc)
}

// NewFile opens path for appending, creating it when needed.
func NewFile(name, path string, enc Encoder) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening access log file %q", path)
	}
	w := NewWriter(name, f, enc)
	w.closer = f
	return w, nil
}

// Name implements accesslog.Appender.
func (w *Writer) Name() string {
	return w.name
}

// Append implements accesslog.Appender.
func (w *Writer) Append(e *accesslog.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.Errorf("appender %q is closed", w.name)
	}
	return w.enc.Encode(w.out, e)
}

// Close implements accesslog.Appender.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
