package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"budgetplanner/internal/storage"
)

var (
	ErrMissingCredentials = errors.New("login and password are required")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrUnauthenticated    = errors.New("not authenticated")
)

const sessionTokenBytes = 32

// Session is an issued login session.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	Login     string    `json:"login"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService logs users in, registering unknown logins on first use.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, ttl time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		cost:     bcryptCost,
		now:      time.Now,
	}
}

// Login checks password against the stored hash of login and opens a
// session. A login that does not exist yet is registered with password.
func (s *AuthService) Login(ctx context.Context, login, password string) (Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}

	user, err := s.users.GetUserByLogin(ctx, login)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		user, err = s.register(ctx, login, password)
		if err != nil {
			return Session{}, err
		}
	case err != nil:
		return Session{}, fmt.Errorf("find user: %w", err)
	default:
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			slog.WarnContext(ctx, "Login rejected", "login", login)
			return Session{}, ErrInvalidCredentials
		}
	}

	token, err := newSessionToken()
	if err != nil {
		return Session{}, err
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.sessions.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return Session{}, err
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return Session{Token: token, UserID: user.ID, Login: user.Login, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) register(ctx context.Context, login, password string) (storage.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, login, string(hash))
	if errors.Is(err, storage.ErrLoginTaken) {
		// Registered concurrently: fall back to a regular password check.
		existing, getErr := s.users.GetUserByLogin(ctx, login)
		if getErr != nil {
			return storage.User{}, fmt.Errorf("find user: %w", getErr)
		}
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) != nil {
			return storage.User{}, ErrInvalidCredentials
		}
		return existing, nil
	}
	if err != nil {
		return storage.User{}, err
	}
	return user, nil
}

// Authenticate resolves a session token to its user. Expired sessions are
// removed on sight.
func (s *AuthService) Authenticate(ctx context.Context, token string) (storage.User, error) {
	if token == "" {
		return storage.User{}, ErrUnauthenticated
	}
	sess, err := s.sessions.GetSession(ctx, token)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return storage.User{}, ErrUnauthenticated
	}
	if err != nil {
		return storage.User{}, err
	}
	if !s.now().Before(sess.ExpiresAt) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired session", "error", err)
		}
		return storage.User{}, ErrUnauthenticated
	}

	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return storage.User{}, ErrUnauthenticated
	}
	if err != nil {
		return storage.User{}, err
	}
	return user, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}

// PurgeExpired drops every expired session.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
