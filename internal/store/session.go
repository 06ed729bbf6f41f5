package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoSession is returned by GetSession when nobody is signed in.
var ErrNoSession = errors.New("no stored session")

// SetSession replaces the stored session.
func (s *Store) SetSession(sess Session) error {
	if sess.Token == "" {
		return fmt.Errorf("set session: empty token")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO session (id, token, role, user_id, email, created_at) VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			role = excluded.role,
			user_id = excluded.user_id,
			email = excluded.email,
			created_at = excluded.created_at`,
		sess.Token, sess.Role, sess.UserID, sess.Email, now,
	)
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *Store) GetSession() (*Session, error) {
	sess := &Session{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT token, role, user_id, email, created_at FROM session WHERE id = 1`,
	).Scan(&sess.Token, &sess.Role, &sess.UserID, &sess.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return sess, nil
}

// ClearSession removes the stored session. Clearing an empty store is not an error.
func (s *Store) ClearSession() error {
	if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
