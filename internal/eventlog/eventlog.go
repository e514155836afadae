// Package eventlog persists sanitizer fixes as JSON lines.
//
// It backs the full-log toggle: when enabled, every fix the pipeline applies
// is appended to a log file with a timestamp and the document it came from.
package eventlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/moenvlab/oaskeyguard/internal/fileutil"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

// Event is one line of the log.
type Event struct {
	Time   time.Time `json:"time"`
	Source string    `json:"source,omitempty"`
	sanitizer.Fix
}

// Writer appends events to an io.Writer. It is safe for concurrent use.
type Writer struct {
	out    *output
	source string
	now    func() time.Time
}

type output struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

var _ sanitizer.EventSink = (*Writer)(nil)

// New returns a Writer that encodes events to w.
func New(w io.Writer) *Writer {
	return &Writer{out: &output{enc: json.NewEncoder(w)}, now: time.Now}
}

// Open appends to the file at path, creating it if needed.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fileutil.ReadableByAll) //nolint:gosec // G304: log path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("eventlog: opening %s: %w", path, err)
	}
	w := New(f)
	w.out.closer = f
	return w, nil
}

// ForSource returns a Writer sharing the same output that tags events with source.
func (w *Writer) ForSource(source string) *Writer {
	return &Writer{out: w.out, source: source, now: w.now}
}

// Record implements sanitizer.EventSink.
func (w *Writer) Record(fix sanitizer.Fix) error {
	w.out.mu.Lock()
	defer w.out.mu.Unlock()
	if err := w.out.enc.Encode(Event{Time: w.now().UTC(), Source: w.source, Fix: fix}); err != nil {
		return fmt.Errorf("eventlog: encoding event: %w", err)
	}
	return nil
}

// Close closes the underlying file when the Writer was created by Open.
// Writers derived with ForSource share that file.
func (w *Writer) Close() error {
	w.out.mu.Lock()
	defer w.out.mu.Unlock()
	if w.out.closer == nil {
		return nil
	}
	err := w.out.closer.Close()
	w.out.closer = nil
	return err
}
