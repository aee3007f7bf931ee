// Package reporttest provides in-memory report objects for tests and the
// simulated host used by `fern serve --simulate`.
package reporttest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/report"
)

// Recorder is shared by every object of one report tree. It records calls and
// injects failures keyed by method ("page.createVisual", "visual.getDataFields").
type Recorder struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]error
}

func newRecorder() *Recorder {
	return &Recorder{failures: make(map[string]error)}
}

// Fail makes every later call of method return err
func (r *Recorder) Fail(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[method] = err
}

// Calls returns the recorded calls in order, formatted as "method(args)"
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// CallsTo returns the recorded calls of one method
func (r *Recorder) CallsTo(method string) []string {
	var matched []string
	for _, call := range r.Calls() {
		if strings.HasPrefix(call, method+"(") {
			matched = append(matched, call)
		}
	}
	return matched
}

// Reset clears the call log
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// record must be called with the lock held
func (r *Recorder) record(method string, args ...any) error {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	r.calls = append(r.calls, method+"("+strings.Join(parts, ",")+")")
	return r.failures[method]
}

func check(caps report.CapabilitySet, c report.Capability, kind string) error {
	if !caps.Has(c) {
		return report.Unsupported("%s.%s is not supported", kind, c)
	}
	return nil
}

// filterSet implements the vendor filter operations over a slice
type filterSet struct {
	filters []models.Filter
}

func (f *filterSet) update(op report.FiltersOperation, filters []models.Filter) {
	switch op {
	case report.FiltersOperationRemoveAll:
		f.filters = nil
	case report.FiltersOperationReplaceAll, report.FiltersOperationReplace:
		f.filters = append([]models.Filter(nil), filters...)
	case report.FiltersOperationAdd:
		f.filters = append(f.filters, filters...)
	case report.FiltersOperationRemove:
		kept := f.filters[:0]
		for _, existing := range f.filters {
			remove := false
			for _, target := range filters {
				if existing.Target == target.Target {
					remove = true
					break
				}
			}
			if !remove {
				kept = append(kept, existing)
			}
		}
		f.filters = kept
	}
}

func (f *filterSet) snapshot() []models.Filter {
	return append([]models.Filter{}, f.filters...)
}
