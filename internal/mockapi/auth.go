package mockapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/sadopc/staffdesk/internal/api"
)

func newTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil, jwt.WithAcceptableSkew(30*time.Second))
}

func (s *Server) issueToken(u *user) (string, error) {
	claims := map[string]any{
		"userId": u.ID,
		"email":  u.Email,
		"role":   string(u.Role),
		"exp":    time.Now().Add(s.tokenTTL).Unix(),
	}
	_, token, err := s.tokenAuth.Encode(claims)
	return token, err
}

type callerKey struct{}

type caller struct {
	ID   string
	Role api.Role
}

// AuthRequired rejects requests without a valid token and stores the caller
// in the request context.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}
		if token == nil {
			unauthorized(w, "Missing token")
			return
		}

		id, _ := claims["userId"].(string)
		role, _ := claims["role"].(string)
		if id == "" || role == "" {
			unauthorized(w, "Invalid token claims")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, caller{ID: id, Role: api.Role(role)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callerFrom(r).Role != api.RoleAdmin {
			forbidden(w, "Admin privilege required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerFrom(r *http.Request) caller {
	c, _ := r.Context().Value(callerKey{}).(caller)
	return c
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "Invalid request format")
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, err)
		return
	}

	u, err := s.data.authenticate(req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}
	token, err := s.issueToken(u)
	if err != nil {
		s.logger.Error("issue token", "error", err)
		handleError(w, err)
		return
	}
	if req.FCMToken != "" {
		s.logger.Debug("device token registered", "user", u.ID)
	}

	success(w, "Login successful", api.LoginResponse{
		Token: token,
		User:  api.User{ID: u.ID, Email: u.Email, Role: u.Role},
	})
}
