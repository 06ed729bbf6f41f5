package mockapi

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/staffdesk/internal/api"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrNotPending         = errors.New("request is not pending")
	ErrScheduleExists     = errors.New("schedule already exists")
)

type user struct {
	ID           string
	Email        string
	Role         api.Role
	PasswordHash []byte
}

// memStore holds all backend state. Every method takes the lock itself.
type memStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	users      map[string]*user
	leaves     map[string]*api.LeaveRequest
	ots        map[string]*api.OTReport
	attendance map[string]*api.AttendanceRecord
	schedules  map[string]*api.Schedule
	notes      map[string]*api.Notification
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:        now,
		users:      make(map[string]*user),
		leaves:     make(map[string]*api.LeaveRequest),
		ots:        make(map[string]*api.OTReport),
		attendance: make(map[string]*api.AttendanceRecord),
		schedules:  make(map[string]*api.Schedule),
		notes:      make(map[string]*api.Notification),
	}
}

func (s *memStore) addUser(email, password string, role api.Role, cost int) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &user{ID: uuid.New().String(), Email: email, Role: role, PasswordHash: hash}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return u, nil
}

func (s *memStore) authenticate(email, password string) (*user, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		return u, nil
	}
	return nil, ErrInvalidCredentials
}

// ref must be called with the lock held.
func (s *memStore) ref(id string) api.EmployeeRef {
	if u, ok := s.users[id]; ok {
		return api.EmployeeRef{ID: u.ID, Email: u.Email}
	}
	return api.EmployeeRef{ID: id}
}

func (s *memStore) employeeCount() int {
	n := 0
	for _, u := range s.users {
		if u.Role == api.RoleUser {
			n++
		}
	}
	return n
}

func paginate[T any](items []T, page, limit int) ([]T, api.Pagination) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	total := len(items)
	p := api.Pagination{
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		Total:       total,
		Limit:       limit,
	}
	from := min((page-1)*limit, total)
	to := min(from+limit, total)
	out := make([]T, to-from)
	copy(out, items[from:to])
	return out, p
}

func newestFirst(a, b time.Time, idA, idB string) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmp.Compare(idA, idB)
}

// ============================================================
// Leave requests
// ============================================================

// listLeaves returns ownerID's requests, or everyone's when ownerID is empty.
// A non-empty status keeps only requests in that status.
func (s *memStore) listLeaves(ownerID string, status api.Status, page, limit int) ([]api.LeaveRequest, api.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []api.LeaveRequest
	for _, l := range s.leaves {
		if ownerID != "" && l.Employee.ID != ownerID || status != "" && l.Status != status {
			continue
		}
		item := *l
		if ownerID == "" {
			item.Employee = s.ref(l.Employee.ID)
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b api.LeaveRequest) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return paginate(items, page, limit)
}

func (s *memStore) getLeave(id, ownerID string) (api.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leaves[id]
	if !ok || (ownerID != "" && l.Employee.ID != ownerID) {
		return api.LeaveRequest{}, fmt.Errorf("leave request %w", ErrNotFound)
	}
	item := *l
	item.Employee = s.ref(l.Employee.ID)
	return item, nil
}

func (s *memStore) createLeave(ownerID string, in api.LeaveInput) api.LeaveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &api.LeaveRequest{
		ID:        uuid.New().String(),
		Employee:  api.EmployeeRef{ID: ownerID},
		Type:      in.Type,
		Reason:    in.Reason,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    api.StatusPending,
		CreatedAt: s.now().UTC(),
	}
	s.leaves[l.ID] = l
	return *l
}

func (s *memStore) updateLeave(id, ownerID string, in api.LeaveInput) (api.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leaves[id]
	if !ok || l.Employee.ID != ownerID {
		return api.LeaveRequest{}, fmt.Errorf("leave request %w", ErrNotFound)
	}
	if l.Status != api.StatusPending {
		return api.LeaveRequest{}, ErrNotPending
	}
	l.Type, l.Reason, l.StartDate, l.EndDate = in.Type, in.Reason, in.StartDate, in.EndDate
	return *l, nil
}

func (s *memStore) deleteLeave(id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leaves[id]
	if !ok || l.Employee.ID != ownerID {
		return fmt.Errorf("leave request %w", ErrNotFound)
	}
	if l.Status != api.StatusPending {
		return ErrNotPending
	}
	delete(s.leaves, id)
	return nil
}

// decideLeave moves a pending request to status and notifies its owner.
func (s *memStore) decideLeave(id string, status api.Status, note, reason string) (api.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leaves[id]
	if !ok {
		return api.LeaveRequest{}, fmt.Errorf("leave request %w", ErrNotFound)
	}
	if l.Status != api.StatusPending {
		return api.LeaveRequest{}, ErrNotPending
	}
	l.Status, l.Note, l.RejectReason = status, note, reason
	s.notifyLocked(l.Employee.ID, "Leave request "+string(status),
		fmt.Sprintf("Your %s leave from %s to %s was %s.", l.Type, l.StartDate, l.EndDate, status), "leave", string(status))
	return *l, nil
}

// ============================================================
// OT reports
// ============================================================

func (s *memStore) listOT(ownerID string, status api.Status, page, limit int) ([]api.OTReport, api.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []api.OTReport
	for _, o := range s.ots {
		if ownerID != "" && o.Employee.ID != ownerID || status != "" && o.Status != status {
			continue
		}
		item := *o
		if ownerID == "" {
			item.Employee = s.ref(o.Employee.ID)
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b api.OTReport) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return paginate(items, page, limit)
}

func (s *memStore) getOT(id, ownerID string) (api.OTReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.ots[id]
	if !ok || (ownerID != "" && o.Employee.ID != ownerID) {
		return api.OTReport{}, fmt.Errorf("ot report %w", ErrNotFound)
	}
	item := *o
	item.Employee = s.ref(o.Employee.ID)
	return item, nil
}

func (s *memStore) createOT(ownerID string, in api.OTInput) api.OTReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &api.OTReport{ID: uuid.New().String(), Employee: api.EmployeeRef{ID: ownerID}, Status: api.StatusPending, CreatedAt: s.now().UTC()}
	applyOT(o, in)
	s.ots[o.ID] = o
	return *o
}

func (s *memStore) updateOT(id, ownerID string, in api.OTInput) (api.OTReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.ots[id]
	if !ok || o.Employee.ID != ownerID {
		return api.OTReport{}, fmt.Errorf("ot report %w", ErrNotFound)
	}
	if o.Status != api.StatusPending {
		return api.OTReport{}, ErrNotPending
	}
	applyOT(o, in)
	return *o, nil
}

func applyOT(o *api.OTReport, in api.OTInput) {
	o.Date, o.StartTime, o.EndTime = in.Date, in.StartTime, in.EndTime
	o.TotalHours, o.Reason, o.Project, o.Tasks = in.TotalHours, in.Reason, in.Project, in.Tasks
}

func (s *memStore) decideOT(id string, status api.Status, note, reason string) (api.OTReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.ots[id]
	if !ok {
		return api.OTReport{}, fmt.Errorf("ot report %w", ErrNotFound)
	}
	if o.Status != api.StatusPending {
		return api.OTReport{}, ErrNotPending
	}
	o.Status, o.Note, o.RejectReason = status, note, reason
	s.notifyLocked(o.Employee.ID, "OT report "+string(status),
		fmt.Sprintf("Your overtime on %s (%.1fh) was %s.", o.Date, o.TotalHours, status), "ot", string(status))
	return *o, nil
}

// ============================================================
// Attendance
// ============================================================

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

// check opens a time log for today, or closes the open one. There is one
// record per employee per day.
func (s *memStore) check(ownerID string) api.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	today := now.Format("2006-01-02")

	var rec *api.AttendanceRecord
	for _, r := range s.attendance {
		if r.Employee.ID == ownerID && r.Date == today {
			rec = r
			break
		}
	}
	if rec == nil {
		rec = &api.AttendanceRecord{ID: uuid.New().String(), Employee: api.EmployeeRef{ID: ownerID}, Date: today}
		s.attendance[rec.ID] = rec
	}

	if rec.CheckedIn() {
		last := &rec.TimeLogs[len(rec.TimeLogs)-1]
		out := now.UTC()
		last.CheckOut = &out
		last.Duration = roundHours(out.Sub(last.CheckIn))
		rec.Status = api.AttendanceCompleted
	} else {
		rec.TimeLogs = append(rec.TimeLogs, api.TimeLog{ID: uuid.New().String(), CheckIn: now.UTC()})
		rec.Status = api.AttendancePending
	}

	rec.TotalHours = 0
	for _, l := range rec.TimeLogs {
		rec.TotalHours += l.Duration
	}
	rec.TotalHours = math.Round(rec.TotalHours*100) / 100
	return cloneRecord(rec)
}

// cloneRecord copies r so callers can encode it after the lock is released.
func cloneRecord(r *api.AttendanceRecord) api.AttendanceRecord {
	out := *r
	out.TimeLogs = slices.Clone(r.TimeLogs)
	return out
}

func (s *memStore) history(ownerID string, page, limit int) ([]api.AttendanceRecord, api.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []api.AttendanceRecord
	for _, r := range s.attendance {
		if r.Employee.ID == ownerID {
			items = append(items, cloneRecord(r))
		}
	}
	slices.SortFunc(items, func(a, b api.AttendanceRecord) int {
		return cmp.Or(cmp.Compare(b.Date, a.Date), cmp.Compare(a.ID, b.ID))
	})
	return paginate(items, page, limit)
}

func (s *memStore) allAttendance(page, limit int) ([]api.AdminAttendanceRecord, api.AttendanceStatistics, api.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := s.now().Format("2006-01-02")

	var (
		items   []api.AdminAttendanceRecord
		present = map[string]bool{}
		hours   float64
	)
	for _, r := range s.attendance {
		items = append(items, api.AdminAttendanceRecord{AttendanceRecord: cloneRecord(r), EmployeeInfo: s.ref(r.Employee.ID)})
		hours += r.TotalHours
		if r.Date == today {
			present[r.Employee.ID] = true
		}
	}
	slices.SortFunc(items, func(a, b api.AdminAttendanceRecord) int {
		return cmp.Or(cmp.Compare(b.Date, a.Date), cmp.Compare(a.ID, b.ID))
	})

	stats := api.AttendanceStatistics{TotalEmployees: s.employeeCount(), PresentToday: len(present)}
	if len(items) > 0 {
		stats.AverageHoursPerDay = math.Round(hours/float64(len(items))*100) / 100
	}
	rows, p := paginate(items, page, limit)
	return rows, stats, p
}

// ============================================================
// Schedules
// ============================================================

func (s *memStore) currentSchedule() (api.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	today := s.now().Format("2006-01-02")
	for _, sc := range s.schedules {
		if sc.WeekStart <= today && today <= sc.WeekEnd {
			return *sc, nil
		}
	}
	return api.Schedule{}, fmt.Errorf("schedule for the current week %w", ErrNotFound)
}

// createSchedule stores one schedule per week, keyed by its start date.
func (s *memStore) createSchedule(in api.CreateScheduleInput) (api.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.schedules {
		if sc.WeekStart == in.WeekStart {
			return api.Schedule{}, ErrScheduleExists
		}
	}
	sc := &api.Schedule{ID: uuid.New().String(), WeekStart: in.WeekStart, WeekEnd: in.WeekEnd, Days: in.Days}
	s.schedules[sc.ID] = sc
	return *sc, nil
}

// ============================================================
// Notifications
// ============================================================

func (s *memStore) notifyLocked(userID, title, body, kind, status string) {
	n := &api.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      kind,
		Status:    status,
		CreatedAt: s.now().UTC(),
	}
	s.notes[n.ID] = n
}

func (s *memStore) notify(userID, title, body, kind, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(userID, title, body, kind, status)
}

func (s *memStore) notifications(userID string, page, limit int) ([]api.Notification, api.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []api.Notification
	for _, n := range s.notes {
		if n.UserID == userID {
			items = append(items, *n)
		}
	}
	slices.SortFunc(items, func(a, b api.Notification) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return paginate(items, page, limit)
}
