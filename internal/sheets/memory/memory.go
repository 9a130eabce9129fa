// Package memory is an in-process ReportWriter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budgetplanner/internal/budget"
	ports "budgetplanner/internal/sheets"
)

// Written is one report captured by a Recorder.
type Written struct {
	Owner  string
	Report budget.Report
}

type Recorder struct {
	mu      sync.Mutex
	written []Written
	// Err, when set, is returned by every WriteReport call.
	Err error
}

var _ ports.ReportWriter = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{}
}

func (s *Recorder) WriteReport(_ context.Context, owner string, r budget.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.written = append(s.written, Written{Owner: owner, Report: r})
	return fmt.Sprintf("mem:%s/%s#%d", owner, r.Month, len(s.written)), nil
}

// Written returns a copy of everything recorded so far.
func (s *Recorder) Written() []Written {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Written(nil), s.written...)
}
