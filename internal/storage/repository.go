package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetplanner/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrLoginTaken      = errors.New("login already registered")
	ErrSessionNotFound = errors.New("session not found")
	ErrStateNotFound   = errors.New("state not found")
	ErrVersionConflict = errors.New("state was modified concurrently")
	ErrExportNotFound  = errors.New("no export recorded")
)

// StoredState is the persisted planner state of a user. Version increases
// by one on every write.
type StoredState struct {
	UserID    string
	Data      []byte
	Version   int64
	UpdatedAt time.Time
}

// SessionRecord is a login session.
type SessionRecord struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// ExportRecord describes one report export to the spreadsheet.
type ExportRecord struct {
	UserID     string
	Month      core.MonthKey
	Version    int64
	Categories int
	ExportedAt time.Time
	Ref        string
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, login, passwordHash string) (User, error) {
	user, err := r.queries.CreateUser(ctx, CreateUserParams{
		ID:           core.NewID(),
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().Unix(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrLoginTaken
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "login", user.Login)
	return user, nil
}

func (r *SQLiteRepository) GetUserByLogin(ctx context.Context, login string) (User, error) {
	user, err := r.queries.GetUserByLogin(ctx, login)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by login: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (User, error) {
	user, err := r.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// ListUserIDs returns every registered user in registration order.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	ids, err := r.queries.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	err := r.queries.CreateSession(ctx, CreateSessionParams{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
		CreatedAt: r.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSession(ctx context.Context, token string) (SessionRecord, error) {
	s, err := r.queries.GetSession(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	return SessionRecord{Token: s.Token, UserID: s.UserID, ExpiresAt: time.Unix(s.ExpiresAt, 0)}, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.queries.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions removed", "count", n)
	}
	return n, nil
}

// LoadState returns the stored state of userID or ErrStateNotFound.
func (r *SQLiteRepository) LoadState(ctx context.Context, userID string) (StoredState, error) {
	s, err := r.queries.GetUserState(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredState{}, ErrStateNotFound
	}
	if err != nil {
		return StoredState{}, fmt.Errorf("get user state: %w", err)
	}
	return StoredState{
		UserID:    s.UserID,
		Data:      []byte(s.StateJSON),
		Version:   s.Version,
		UpdatedAt: time.Unix(s.UpdatedAt, 0),
	}, nil
}

// SaveState replaces the stored state of userID and returns the new version.
func (r *SQLiteRepository) SaveState(ctx context.Context, userID string, data []byte) (int64, error) {
	version, err := r.queries.UpsertUserState(ctx, UpsertUserStateParams{
		UserID:    userID,
		StateJSON: string(data),
		UpdatedAt: r.now().Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("upsert user state: %w", err)
	}

	slog.DebugContext(ctx, "State saved", "user_id", userID, "version", version, "bytes", len(data))
	return version, nil
}

// SaveStateIfVersion replaces the stored state only if it is still at
// expected. A stored state at another version yields ErrVersionConflict;
// an absent one is created when expected is 0.
func (r *SQLiteRepository) SaveStateIfVersion(ctx context.Context, userID string, data []byte, expected int64) (int64, error) {
	if expected == 0 {
		if _, err := r.LoadState(ctx, userID); err == nil {
			return 0, ErrVersionConflict
		} else if !errors.Is(err, ErrStateNotFound) {
			return 0, err
		}
		return r.SaveState(ctx, userID, data)
	}

	version, err := r.queries.UpdateUserStateIfVersion(ctx, UpdateUserStateIfVersionParams{
		StateJSON: string(data),
		UpdatedAt: r.now().Unix(),
		UserID:    userID,
		Version:   expected,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, fmt.Errorf("update user state: %w", err)
	}
	return version, nil
}

// RecordExport stores that the month report of userID at version was written.
func (r *SQLiteRepository) RecordExport(ctx context.Context, rec ExportRecord) error {
	_, err := r.queries.CreateReportExport(ctx, CreateReportExportParams{
		UserID:        rec.UserID,
		Month:         string(rec.Month),
		Version:       rec.Version,
		CategoryCount: int64(rec.Categories),
		SheetRef:      rec.Ref,
		ExportedAt:    rec.ExportedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

// LastExport returns the most recent export of a user's month.
func (r *SQLiteRepository) LastExport(ctx context.Context, userID string, month core.MonthKey) (ExportRecord, error) {
	e, err := r.queries.GetLatestReportExport(ctx, GetLatestReportExportParams{UserID: userID, Month: string(month)})
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRecord{}, ErrExportNotFound
	}
	if err != nil {
		return ExportRecord{}, fmt.Errorf("get latest export: %w", err)
	}
	return ExportRecord{
		UserID:     e.UserID,
		Month:      core.MonthKey(e.Month),
		Version:    e.Version,
		Categories: int(e.CategoryCount),
		ExportedAt: time.Unix(e.ExportedAt, 0),
		Ref:        e.SheetRef,
	}, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
