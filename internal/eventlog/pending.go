package eventlog

import (
	"sync"

	"github.com/moenvlab/oaskeyguard/sanitizer"
)

// Pending holds fixes until the document they describe has been written.
// The zero value is ready to use and safe for concurrent use.
type Pending struct {
	mu    sync.Mutex
	fixes []sanitizer.Fix
}

var _ sanitizer.EventSink = (*Pending)(nil)

// Record implements sanitizer.EventSink. It never fails.
func (p *Pending) Record(fix sanitizer.Fix) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixes = append(p.fixes, fix)
	return nil
}

// Len returns the number of held fixes.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fixes)
}

// Flush records the held fixes to sink in order and clears them. When sink
// fails, the fixes it did not accept stay held.
func (p *Pending) Flush(sink sanitizer.EventSink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, fix := range p.fixes {
		if err := sink.Record(fix); err != nil {
			p.fixes = p.fixes[i:]
			return err
		}
	}
	p.fixes = nil
	return nil
}

// Discard drops the held fixes.
func (p *Pending) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixes = nil
}
