package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/sadopc/staffdesk/internal/api"
	"github.com/sadopc/staffdesk/internal/store"
)

var (
	// ErrNoSession means nobody is signed in on this device.
	ErrNoSession = errors.New("not signed in")
	ErrNoRole    = errors.New("login response carries no known role")
)

// Authenticator is the part of the API client the manager needs.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
}

type Manager struct {
	store       *store.Store
	auth        Authenticator
	deviceToken string
	logger      *slog.Logger
}

func NewManager(st *store.Store, auth Authenticator, deviceToken string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{store: st, auth: auth, deviceToken: deviceToken, logger: logger}
}

// Login signs in, persists the session and returns it.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.auth.Login(ctx, api.LoginRequest{Email: email, Password: password, FCMToken: m.deviceToken})
	if err != nil {
		return nil, err
	}

	user := resp.User
	if user.ID == "" || user.Email == "" || user.Role == "" {
		fillFromClaims(&user, resp.Token, m.logger)
	}
	if user.Email == "" {
		user.Email = email
	}
	if user.Role != api.RoleAdmin && user.Role != api.RoleUser {
		return nil, ErrNoRole
	}

	err = m.store.SetSession(store.Session{
		Token:  resp.Token,
		Role:   string(user.Role),
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if err := m.store.SetSetting("last_email", email); err != nil {
		m.logger.Warn("remember email", "error", err)
	}

	m.logger.Info("signed in", "user", user.ID, "role", user.Role)
	return newSession(resp.Token, user, m.clear), nil
}

// Current restores the persisted session, or returns ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	stored, err := m.store.GetSession()
	if errors.Is(err, store.ErrNoSession) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	role := api.Role(stored.Role)
	if role != api.RoleAdmin && role != api.RoleUser {
		m.clear()
		return nil, ErrNoSession
	}
	user := api.User{ID: stored.UserID, Email: stored.Email, Role: role}
	return newSession(stored.Token, user, m.clear), nil
}

// Logout invalidates s and forgets the stored session.
func (m *Manager) Logout(s *Session) error {
	if s != nil && s.Invalidate() {
		return nil
	}
	return m.store.ClearSession()
}

// LastEmail is the address of the last successful sign-in.
func (m *Manager) LastEmail() string {
	v, err := m.store.GetSetting("last_email")
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) clear() {
	if err := m.store.ClearSession(); err != nil {
		m.logger.Warn("clear session", "error", err)
	}
}

// fillFromClaims reads missing user fields out of the token. The token is
// not verified here; the server does that on every call.
func fillFromClaims(u *api.User, token string, logger *slog.Logger) {
	tok, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		logger.Debug("token claims unreadable", "error", err)
		return
	}
	if u.ID == "" {
		u.ID = claimString(tok, "userId")
		if u.ID == "" {
			u.ID = tok.Subject()
		}
	}
	if u.Email == "" {
		u.Email = claimString(tok, "email")
	}
	if u.Role == "" {
		u.Role = api.Role(claimString(tok, "role"))
	}
}

func claimString(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
