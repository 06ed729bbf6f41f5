package store

import (
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/staffdesk.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetSession(Session{Token: "abc", Role: "user"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: the session survives and migration does not run twice.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	sess, err := s2.GetSession()
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token != "abc" {
		t.Fatalf("expected persisted token, got %q", sess.Token)
	}
}

// ============================================================
// Session
// ============================================================

func TestGetSessionEmpty(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.GetSession()
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if sess != nil {
		t.Fatal("expected nil session")
	}
}

func TestSetGetSession(t *testing.T) {
	s := newTestStore(t)
	err := s.SetSession(Session{Token: "tok-1", Role: "admin", UserID: "u1", Email: "boss@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	sess, err := s.GetSession()
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token != "tok-1" || sess.Role != "admin" || sess.UserID != "u1" || sess.Email != "boss@example.com" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.CreatedAt.IsZero() {
		t.Fatal("created_at should be set")
	}
}

func TestSetSessionReplaces(t *testing.T) {
	s := newTestStore(t)
	s.SetSession(Session{Token: "old", Role: "user"})
	s.SetSession(Session{Token: "new", Role: "admin"})

	var count int
	s.db.QueryRow(`SELECT COUNT(*) FROM session`).Scan(&count)
	if count != 1 {
		t.Fatalf("expected exactly one session row, got %d", count)
	}

	sess, _ := s.GetSession()
	if sess.Token != "new" || sess.Role != "admin" {
		t.Fatalf("session not replaced: %+v", sess)
	}
}

func TestSetSessionEmptyToken(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSession(Session{Role: "user"}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestClearSession(t *testing.T) {
	s := newTestStore(t)
	s.SetSession(Session{Token: "tok", Role: "user"})

	if err := s.ClearSession(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}

	// Clearing twice is fine.
	if err := s.ClearSession(); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestDefaultSettings(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		key, want string
	}{
		{"last_email", ""},
		{"page_size", "20"},
		{"export_format", "csv"},
	}
	for _, tt := range tests {
		got, err := s.GetSetting(tt.key)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("GetSetting(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestSetSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("last_email", "a@b.co"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSetting("last_email")
	if got != "a@b.co" {
		t.Fatalf("got %q", got)
	}

	// New key
	if err := s.SetSetting("custom", "x"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetSetting("custom")
	if got != "x" {
		t.Fatalf("got %q", got)
	}
}

func TestGetSettingMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nope"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestGetSettingInt(t *testing.T) {
	s := newTestStore(t)
	if got := s.GetSettingInt("page_size", 5); got != 20 {
		t.Fatalf("expected 20, got %d", got)
	}
	s.SetSetting("page_size", "lots")
	if got := s.GetSettingInt("page_size", 5); got != 5 {
		t.Fatalf("expected fallback 5, got %d", got)
	}
	if got := s.GetSettingInt("missing", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) != 3 {
		t.Fatalf("expected 3 default settings, got %d", len(settings))
	}
	// Ordered by key
	for i := 1; i < len(settings); i++ {
		if settings[i-1].Key > settings[i].Key {
			t.Fatal("settings not sorted by key")
		}
	}
}
