// Package services coordinates the planner engine with persistence,
// messaging and the spreadsheet export. The engine itself lives in
// internal/budget and never performs I/O; everything here does.
package services

import (
	"context"
	"time"

	"budgetplanner/internal/core"
	"budgetplanner/internal/storage"
)

// UserStore persists registered users.
type UserStore interface {
	CreateUser(ctx context.Context, login, passwordHash string) (storage.User, error)
	GetUserByLogin(ctx context.Context, login string) (storage.User, error)
	GetUserByID(ctx context.Context, id string) (storage.User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (storage.SessionRecord, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// StateStore persists one versioned state document per user.
type StateStore interface {
	LoadState(ctx context.Context, userID string) (storage.StoredState, error)
	SaveState(ctx context.Context, userID string, data []byte) (int64, error)
	SaveStateIfVersion(ctx context.Context, userID string, data []byte, expected int64) (int64, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// StatePublisher announces persisted states. month is the month the change
// concerned, or empty for a full replace.
type StatePublisher interface {
	PublishStateSaved(ctx context.Context, userID string, version int64, month core.MonthKey) error
}

// ExportLog remembers which report versions reached the spreadsheet.
type ExportLog interface {
	RecordExport(ctx context.Context, rec storage.ExportRecord) error
	LastExport(ctx context.Context, userID string, month core.MonthKey) (storage.ExportRecord, error)
}
