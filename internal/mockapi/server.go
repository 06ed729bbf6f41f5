// Package mockapi is an in-memory stand-in for the HR backend, serving the
// same HTTP contract the client consumes. It exists for local development
// and for tests.
package mockapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/staffdesk/internal/api"
)

// Seeded accounts.
const (
	AdminEmail       = "admin@staffdesk.local"
	AdminPassword    = "admin123"
	EmployeeEmail    = "employee@staffdesk.local"
	EmployeePassword = "employee123"
)

type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
	Now            func() time.Time // defaults to time.Now
	HashCost       int              // bcrypt cost for seeded users
}

type Server struct {
	data      *memStore
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration
	origins   []string
	logger    *slog.Logger
	now       func() time.Time

	adminID    string
	employeeID string
}

// New builds a server with the seeded accounts, a welcome notification and a
// schedule for the current week.
func New(opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, fmt.Errorf("mockapi: JWT secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}

	s := &Server{
		data:      newMemStore(opts.Now),
		tokenAuth: newTokenAuth(opts.JWTSecret),
		tokenTTL:  opts.TokenTTL,
		origins:   opts.AllowedOrigins,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if err := s.seed(opts.HashCost); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) seed(cost int) error {
	admin, err := s.data.addUser(AdminEmail, AdminPassword, api.RoleAdmin, cost)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	emp, err := s.data.addUser(EmployeeEmail, EmployeePassword, api.RoleUser, cost)
	if err != nil {
		return fmt.Errorf("seed employee: %w", err)
	}
	s.adminID, s.employeeID = admin.ID, emp.ID

	s.data.notify(emp.ID, "Welcome", "Your staffdesk account is ready.", "system", "")

	now := s.now()
	y, m, d := now.Date()
	start := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
	in := api.CreateScheduleInput{
		WeekStart: start.Format("2006-01-02"),
		WeekEnd:   start.AddDate(0, 0, 6).Format("2006-01-02"),
	}
	for i := range 7 {
		day := api.ScheduleDay{Date: start.AddDate(0, 0, i).Format("2006-01-02")}
		day.Shifts.Morning = []api.ShiftSlot{{EmployeeID: emp.ID, Name: "Employee", Position: "Staff"}}
		day.Shifts.Afternoon = []api.ShiftSlot{}
		in.Days = append(in.Days, day)
	}
	if _, err := s.data.createSchedule(in); err != nil {
		return fmt.Errorf("seed schedule: %w", err)
	}
	return nil
}

// EmployeeID is the id of the seeded employee account.
func (s *Server) EmployeeID() string { return s.employeeID }

// Handler returns the HTTP handler, rooted so that the API lives under /api.
func (s *Server) Handler() http.Handler { return s.routes() }
