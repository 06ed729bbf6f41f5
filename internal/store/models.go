package store

import "time"

// Session is the persisted sign-in state. At most one exists per installation.
type Session struct {
	Token     string
	Role      string // admin, user
	UserID    string
	Email     string
	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}
