package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createUser = `
INSERT INTO users (id, login, password_hash, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, login, password_hash, created_at
`

type CreateUserParams struct {
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.ID, arg.Login, arg.PasswordHash, arg.CreatedAt)
	var i User
	err := row.Scan(&i.ID, &i.Login, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getUserByLogin = `
SELECT id, login, password_hash, created_at FROM users WHERE login = ?
`

func (q *Queries) GetUserByLogin(ctx context.Context, login string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByLogin, login)
	var i User
	err := row.Scan(&i.ID, &i.Login, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getUserByID = `
SELECT id, login, password_hash, created_at FROM users WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Login, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const listUserIDs = `
SELECT id FROM users ORDER BY created_at, id
`

func (q *Queries) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUserIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSession = `
INSERT INTO sessions (token, user_id, expires_at, created_at)
VALUES (?, ?, ?, ?)
`

type CreateSessionParams struct {
	Token     string
	UserID    string
	ExpiresAt int64
	CreatedAt int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession, arg.Token, arg.UserID, arg.ExpiresAt, arg.CreatedAt)
	return err
}

const getSession = `
SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?
`

func (q *Queries) GetSession(ctx context.Context, token string) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, token)
	var i Session
	err := row.Scan(&i.Token, &i.UserID, &i.ExpiresAt, &i.CreatedAt)
	return i, err
}

const deleteSession = `
DELETE FROM sessions WHERE token = ?
`

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, token)
	return err
}

const deleteExpiredSessions = `
DELETE FROM sessions WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getUserState = `
SELECT user_id, state_json, version, updated_at FROM user_states WHERE user_id = ?
`

func (q *Queries) GetUserState(ctx context.Context, userID string) (UserState, error) {
	row := q.db.QueryRowContext(ctx, getUserState, userID)
	var i UserState
	err := row.Scan(&i.UserID, &i.StateJSON, &i.Version, &i.UpdatedAt)
	return i, err
}

const upsertUserState = `
INSERT INTO user_states (user_id, state_json, version, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT(user_id) DO UPDATE SET
    state_json = excluded.state_json,
    version = user_states.version + 1,
    updated_at = excluded.updated_at
RETURNING version
`

type UpsertUserStateParams struct {
	UserID    string
	StateJSON string
	UpdatedAt int64
}

func (q *Queries) UpsertUserState(ctx context.Context, arg UpsertUserStateParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertUserState, arg.UserID, arg.StateJSON, arg.UpdatedAt)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const updateUserStateIfVersion = `
UPDATE user_states
SET state_json = ?, version = version + 1, updated_at = ?
WHERE user_id = ? AND version = ?
RETURNING version
`

type UpdateUserStateIfVersionParams struct {
	StateJSON string
	UpdatedAt int64
	UserID    string
	Version   int64
}

func (q *Queries) UpdateUserStateIfVersion(ctx context.Context, arg UpdateUserStateIfVersionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, updateUserStateIfVersion, arg.StateJSON, arg.UpdatedAt, arg.UserID, arg.Version)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const createReportExport = `
INSERT INTO report_exports (user_id, month, version, category_count, sheet_ref, exported_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, user_id, month, version, category_count, sheet_ref, exported_at
`

type CreateReportExportParams struct {
	UserID        string
	Month         string
	Version       int64
	CategoryCount int64
	SheetRef      string
	ExportedAt    int64
}

func (q *Queries) CreateReportExport(ctx context.Context, arg CreateReportExportParams) (ReportExport, error) {
	row := q.db.QueryRowContext(ctx, createReportExport,
		arg.UserID, arg.Month, arg.Version, arg.CategoryCount, arg.SheetRef, arg.ExportedAt)
	var i ReportExport
	err := row.Scan(&i.ID, &i.UserID, &i.Month, &i.Version, &i.CategoryCount, &i.SheetRef, &i.ExportedAt)
	return i, err
}

const getLatestReportExport = `
SELECT id, user_id, month, version, category_count, sheet_ref, exported_at FROM report_exports
WHERE user_id = ? AND month = ?
ORDER BY id DESC
LIMIT 1
`

type GetLatestReportExportParams struct {
	UserID string
	Month  string
}

func (q *Queries) GetLatestReportExport(ctx context.Context, arg GetLatestReportExportParams) (ReportExport, error) {
	row := q.db.QueryRowContext(ctx, getLatestReportExport, arg.UserID, arg.Month)
	var i ReportExport
	err := row.Scan(&i.ID, &i.UserID, &i.Month, &i.Version, &i.CategoryCount, &i.SheetRef, &i.ExportedAt)
	return i, err
}
