package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sadopc/staffdesk/internal/validator"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Client talks to the HR backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New returns a client for baseURL (including the /api prefix).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// roundTrip issues one request and returns the decoded envelope and the raw
// body. Non-2xx statuses and success:false both come back as *Error.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, token string, body any) (*envelope, []byte, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed", "method", method, "path", path, "duration", time.Since(start), "error", err)
		return nil, nil, &Error{Op: op, kind: ErrTransport, cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.logger.DebugContext(ctx, "api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		return nil, nil, &Error{Op: op, Status: resp.StatusCode, kind: ErrTransport, cause: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{Op: op, Status: resp.StatusCode, kind: kindForStatus(resp.StatusCode)}
		if decodeErr == nil {
			e.Message = env.message()
			if env.Error != nil {
				e.Code = env.Error.Code
			}
		}
		return nil, nil, e
	}
	if decodeErr != nil {
		return nil, nil, &Error{Op: op, Status: resp.StatusCode, kind: ErrMalformedResponse, cause: decodeErr}
	}
	if env.Success != nil && !*env.Success {
		e := &Error{Op: op, Status: resp.StatusCode, Message: env.message(), kind: ErrBadRequest}
		if env.Error != nil {
			e.Code = env.Error.Code
		}
		return nil, nil, e
	}
	return &env, raw, nil
}

// send decodes the envelope's data into T and runs T's shape checks.
func send[T any](ctx context.Context, c *Client, method, path string, query url.Values, token string, body any) (*T, error) {
	env, _, err := c.roundTrip(ctx, method, path, query, token, body)
	if err != nil {
		return nil, err
	}
	op := method + " " + path
	if !env.hasData() {
		return nil, &Error{Op: op, Status: http.StatusOK, kind: ErrMalformedResponse, cause: errors.New("missing data")}
	}
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, &Error{Op: op, Status: http.StatusOK, kind: ErrMalformedResponse, cause: err}
	}
	if s, ok := any(&v).(interface{ validate() error }); ok {
		if err := s.validate(); err != nil {
			return nil, &Error{Op: op, Status: http.StatusOK, kind: ErrMalformedResponse, cause: err}
		}
	}
	return &v, nil
}

// exec is send for endpoints whose data the caller does not need.
func (c *Client) exec(ctx context.Context, method, path, token string, body any) error {
	_, _, err := c.roundTrip(ctx, method, path, nil, token, body)
	return err
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Status != "" {
		q.Set("status", string(o.Status))
	}
	return q
}

func requireID(id string) error {
	var errs validator.ValidationErrors
	errs.Required("id", id)
	return errs.Err()
}

func escape(id string) string { return url.PathEscape(id) }
