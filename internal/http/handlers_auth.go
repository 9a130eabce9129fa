package http

import (
	"net/http"
	"strings"

	applog "budgetplanner/internal/log"
	"budgetplanner/internal/storage"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, user storage.User)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type userResponse struct {
	UserID string `json:"userId"`
	Login  string `json:"login"`
}

// authed resolves the session of the request and passes its user on.
func (s *Server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.Authenticate(r.Context(), s.sessionToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := applog.IntoContext(r.Context(), applog.FromContext(r.Context()).With(applog.FieldUserID, user.ID))
		next(w, r.WithContext(ctx), user)
	}
}

// sessionToken reads the session cookie, falling back to a bearer token.
func (s *Server) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), s.sessionToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user storage.User) {
	writeJSON(w, http.StatusOK, userResponse{UserID: user.ID, Login: user.Login})
}

