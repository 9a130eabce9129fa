package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"budgetplanner/internal/budget"
	"budgetplanner/internal/cache"
	"budgetplanner/internal/core"
	"budgetplanner/internal/storage"
)

var (
	ErrMalformedState = errors.New("state document must be a JSON object")
	ErrStateBusy      = errors.New("state keeps changing, try again")
)

const maxMutateAttempts = 3

// ReportKey identifies a cached month report. A report depends only on the
// state at Version and the evaluation date.
type ReportKey struct {
	UserID  string
	Month   core.MonthKey
	Date    string
	Version int64
}

// PlannerService loads, mutates and persists per-user planner states.
type PlannerService struct {
	store     StateStore
	publisher StatePublisher
	reports   *cache.LRU[ReportKey, budget.Report]

	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock serializes writers of one user. refs counts holders and waiters;
// the entry is dropped when it reaches zero.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewPlannerService wires the service. publisher and reports may be nil.
func NewPlannerService(store StateStore, publisher StatePublisher, reports *cache.LRU[ReportKey, budget.Report]) *PlannerService {
	return &PlannerService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		locks:     make(map[string]*userLock),
	}
}

// Load returns the normalized state of userID and its version. A user that
// never saved gets the default state at version 0.
func (s *PlannerService) Load(ctx context.Context, userID string) (*core.State, int64, error) {
	stored, err := s.store.LoadState(ctx, userID)
	if errors.Is(err, storage.ErrStateNotFound) {
		return core.NewState(), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load state: %w", err)
	}
	return core.DecodeState(stored.Data), stored.Version, nil
}

// Save normalizes and stores st unconditionally.
func (s *PlannerService) Save(ctx context.Context, userID string, st *core.State, month core.MonthKey) (int64, error) {
	data, err := encodeState(st)
	if err != nil {
		return 0, err
	}
	version, err := s.store.SaveState(ctx, userID, data)
	if err != nil {
		return 0, fmt.Errorf("save state: %w", err)
	}
	s.saved(ctx, userID, version, month, true)
	return version, nil
}

// Replace stores a client-supplied state document. Unknown or malformed
// sections are normalized away; only a document that is not a JSON object
// is rejected.
func (s *PlannerService) Replace(ctx context.Context, userID string, data []byte) (*core.State, int64, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) || len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, 0, ErrMalformedState
	}
	st := core.DecodeState(trimmed)
	version, err := s.Save(ctx, userID, st, "")
	if err != nil {
		return nil, 0, err
	}
	return st, version, nil
}

// Mutate applies fn to the current state of userID and stores the result
// if nobody else wrote in between. On a concurrent write fn runs again on
// the fresh state. fn reports whether it changed anything; an unchanged
// state is neither written nor announced. An error from fn aborts without
// writing.
func (s *PlannerService) Mutate(ctx context.Context, userID string, month core.MonthKey, fn func(*core.State) (bool, error)) (*core.State, int64, error) {
	return s.mutate(ctx, userID, month, true, fn)
}

// Materialize adds the due preset transactions of key to the state of
// userID and persists them. It reports whether anything was added. No
// state.saved event is published, so a consumer that materializes on
// events does not feed itself.
func (s *PlannerService) Materialize(ctx context.Context, userID string, key core.MonthKey) (bool, int64, error) {
	changed := false
	_, version, err := s.mutate(ctx, userID, key, false, func(st *core.State) (bool, error) {
		var err error
		changed, err = budget.MaterializeMonth(st, key)
		return changed, err
	})
	if err != nil {
		return false, 0, err
	}
	return changed, version, nil
}

// Materialized returns the state of userID after materializing key, and
// persists the added transactions.
func (s *PlannerService) Materialized(ctx context.Context, userID string, key core.MonthKey) (*core.State, int64, error) {
	if _, err := core.ParseMonthKey(string(key)); err != nil {
		return nil, 0, err
	}
	return s.mutate(ctx, userID, key, false, func(st *core.State) (bool, error) {
		return budget.MaterializeMonth(st, key)
	})
}

// Report materializes key and returns its report for currentDate together
// with the state version it was computed from.
func (s *PlannerService) Report(ctx context.Context, userID string, key core.MonthKey, currentDate string) (budget.Report, int64, error) {
	st, version, err := s.Materialized(ctx, userID, key)
	if err != nil {
		return budget.Report{}, 0, err
	}

	ck := ReportKey{UserID: userID, Month: key, Date: currentDate, Version: version}
	if s.reports != nil {
		if cached, ok := s.reports.Get(ck); ok {
			slog.DebugContext(ctx, "Report cache hit", "user_id", userID, "month", key, "version", version)
			return cached, version, nil
		}
	}

	report := budget.BuildReport(st, key, currentDate)
	if s.reports != nil {
		s.reports.Set(ck, report)
	}
	return report, version, nil
}

// mutate runs fn under the per-user lock and writes the state back with an
// optimistic version check when fn reports a change.
func (s *PlannerService) mutate(ctx context.Context, userID string, month core.MonthKey, publish bool, fn func(*core.State) (bool, error)) (*core.State, int64, error) {
	unlock := s.lock(userID)
	defer unlock()

	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		st, version, err := s.Load(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		changed, err := fn(st)
		if err != nil {
			return nil, 0, err
		}
		if !changed {
			return st, version, nil
		}

		data, err := encodeState(st)
		if err != nil {
			return nil, 0, err
		}
		newVersion, err := s.store.SaveStateIfVersion(ctx, userID, data, version)
		if errors.Is(err, storage.ErrVersionConflict) {
			slog.DebugContext(ctx, "State version conflict, retrying",
				"user_id", userID, "expected_version", version, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("save state: %w", err)
		}
		s.saved(ctx, userID, newVersion, month, publish)
		return st, newVersion, nil
	}
	return nil, 0, ErrStateBusy
}

// saved drops cached reports of userID and announces the new version.
// A failed publish is logged; the state is already durable.
func (s *PlannerService) saved(ctx context.Context, userID string, version int64, month core.MonthKey, publish bool) {
	if s.reports != nil {
		n := s.reports.DeleteFunc(func(k ReportKey) bool { return k.UserID == userID })
		if n > 0 {
			slog.DebugContext(ctx, "Report cache invalidated", "user_id", userID, "entries", n)
		}
	}
	if !publish || s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStateSaved(ctx, userID, version, month); err != nil {
		slog.WarnContext(ctx, "Failed to publish state saved event",
			"user_id", userID, "version", version, "error", err)
	}
}

func (s *PlannerService) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

func encodeState(st *core.State) ([]byte, error) {
	core.Normalize(st)
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}
