// Package memstore provides in-memory repositories for tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/monitor-report/internal/domain"
	"github.com/spec-kit/monitor-report/internal/events"
	"github.com/spec-kit/monitor-report/internal/repository"
)

// Store backs every in-memory repository with shared maps so that
// cross-table checks behave like the database.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*domain.User
	servers  map[int64]*domain.DiscordServer
	reports  map[int64]*domain.DailyReport
	comments map[int64]*domain.Comment
	// serversInUse simulates the monitoring_records foreign key
	serversInUse map[int64]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		nextID:       1000,
		users:        map[int64]*domain.User{},
		servers:      map[int64]*domain.DiscordServer{},
		reports:      map[int64]*domain.DailyReport{},
		comments:     map[int64]*domain.Comment{},
		serversInUse: map[int64]bool{},
	}
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

// Users returns the user repository.
func (m *Store) Users() repository.UserRepository { return userRepo{m} }

// Servers returns the server repository.
func (m *Store) Servers() repository.ServerRepository { return serverRepo{m} }

// Reports returns the report repository.
func (m *Store) Reports() repository.ReportRepository { return reportRepo{m} }

// Comments returns the comment repository.
func (m *Store) Comments() repository.CommentRepository { return commentRepo{m} }

type userRepo struct{ *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == 0 {
		user.ID = r.id()
	}
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	for _, u := range r.users {
		if u.Email == user.Email && u.ID != user.ID {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) List(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) HasActivity(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.OwnerID == id {
			return true, nil
		}
	}
	for _, c := range r.comments {
		if c.OwnerID == id {
			return true, nil
		}
	}
	return false, nil
}

type serverRepo struct{ *Store }

func (r serverRepo) Create(_ context.Context, server *domain.DiscordServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if server.ID == 0 {
		server.ID = r.id()
	}
	cp := *server
	r.servers[server.ID] = &cp
	return nil
}

func (r serverRepo) Update(_ context.Context, server *domain.DiscordServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servers[server.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *server
	r.servers[server.ID] = &cp
	return nil
}

func (r serverRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servers[id]; !ok {
		return pgx.ErrNoRows
	}
	if r.serversInUse[id] {
		return repository.ErrReferenced
	}
	delete(r.servers, id)
	return nil
}

func (r serverRepo) GetByID(_ context.Context, id int64) (*domain.DiscordServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (r serverRepo) List(_ context.Context, activeOnly bool) ([]domain.DiscordServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DiscordServer
	for _, s := range r.servers {
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r serverRepo) MissingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if _, ok := r.servers[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type reportRepo struct{ *Store }

func (r reportRepo) Create(_ context.Context, report *domain.DailyReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.ID = r.id()
	report.CreatedAt, report.UpdatedAt = time.Now(), time.Now()
	for i := range report.MonitoringRecords {
		report.MonitoringRecords[i].ID = r.id()
		report.MonitoringRecords[i].ReportID = report.ID
		r.serversInUse[report.MonitoringRecords[i].ServerID] = true
	}
	cp := *report
	r.reports[report.ID] = &cp
	return nil
}

func (r reportRepo) Update(_ context.Context, report *domain.DailyReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.reports[report.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Problem, existing.Plan = report.Problem, report.Plan
	existing.MonitoringRecords = append([]domain.MonitoringRecord(nil), report.MonitoringRecords...)
	existing.UpdatedAt = time.Now()
	return nil
}

func (r reportRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.reports, id)
	for cid, c := range r.comments {
		if c.ReportID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

func (r reportRepo) GetByID(_ context.Context, id int64) (*domain.DailyReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rep
	cp.Comments = nil
	for _, c := range r.comments {
		if c.ReportID == id {
			cp.Comments = append(cp.Comments, *c)
		}
	}
	cp.MonitoringCount = len(cp.MonitoringRecords)
	cp.CommentCount = len(cp.Comments)
	return &cp, nil
}

func (r reportRepo) OwnerOf(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return rep.OwnerID, nil
}

func (r reportRepo) List(_ context.Context, filter repository.ReportFilter) ([]domain.DailyReport, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.DailyReport
	for _, rep := range r.reports {
		if filter.OwnerID != nil && rep.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.StartDate != nil && rep.ReportDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && rep.ReportDate.After(*filter.EndDate) {
			continue
		}
		all = append(all, *rep)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ReportDate.After(all[j].ReportDate) })
	total := len(all)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return all[filter.Offset:end], total, nil
}

type commentRepo struct{ *Store }

func (r commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.id()
	comment.CreatedAt, comment.UpdatedAt = time.Now(), time.Now()
	cp := *comment
	r.comments[comment.ID] = &cp
	return nil
}

func (r commentRepo) UpdateText(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.comments[comment.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Text = comment.Text
	existing.UpdatedAt = time.Now()
	return nil
}

func (r commentRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comments, id)
	return nil
}

func (r commentRepo) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r commentRepo) OwnerOf(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return c.OwnerID, nil
}

func (r commentRepo) ListByReport(_ context.Context, reportID int64) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Comment
	for _, c := range r.comments {
		if c.ReportID == reportID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// RecordingDispatcher captures published events.
type RecordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *RecordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *RecordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

// Types lists the published event types in order.
func (d *RecordingDispatcher) Types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}
