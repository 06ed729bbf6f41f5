package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sadopc/staffdesk/internal/validator"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FCMToken string `json:"fcmToken"`
}

func (r LoginRequest) Validate() error {
	var errs validator.ValidationErrors
	errs.Required("email", r.Email)
	if !validator.IsEmpty(r.Email) && !validator.IsValidEmail(r.Email) {
		errs.Add("email", "email is not a valid address")
	}
	errs.Required("password", r.Password)
	return errs.Err()
}

// LoginResponse is the token and the signed-in user. User fields may be
// empty when the server only sent a token.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type loginPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
	Role  Role   `json:"role"`
}

func (p loginPayload) response() LoginResponse {
	resp := LoginResponse{Token: p.Token}
	if p.User != nil {
		resp.User = *p.User
	}
	if resp.User.Role == "" {
		resp.User.Role = p.Role
	}
	return resp
}

// Login exchanges credentials for a token. The payload is accepted either
// nested under data or at the top level of the body.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	const op = http.MethodPost + " /auth/login"
	env, raw, err := c.roundTrip(ctx, http.MethodPost, "/auth/login", nil, "", req)
	if err != nil {
		return nil, err
	}

	var p loginPayload
	src := raw
	if env.hasData() {
		src = env.Data
	}
	if err := json.Unmarshal(src, &p); err != nil {
		return nil, &Error{Op: op, Status: http.StatusOK, kind: ErrMalformedResponse, cause: err}
	}
	if p.Token == "" {
		return nil, &Error{Op: op, Status: http.StatusOK, kind: ErrMalformedResponse, cause: errors.New("missing token")}
	}
	resp := p.response()
	switch resp.User.Role {
	case "", RoleAdmin, RoleUser:
	default:
		return nil, &Error{Op: op, Status: http.StatusOK, kind: ErrMalformedResponse, cause: errors.New("unknown role " + string(resp.User.Role))}
	}
	return &resp, nil
}
