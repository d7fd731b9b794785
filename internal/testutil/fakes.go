// Package testutil holds in-memory stand-ins for the MySQL repositories and
// the event broker.  It is imported by tests only.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/queue"
	"github.com/iliyamo/admin-platform/internal/repository"
)

// Users is a goroutine-safe in-memory user table.
type Users struct {
	mu     sync.Mutex
	byID   map[string]*model.User
	Err    error // when set, every call fails with it
	Logins int   // successful UpdateLastLogin calls
}

func NewUsers(users ...*model.User) *Users {
	s := &Users{byID: make(map[string]*model.User)}
	for _, u := range users {
		s.Put(u)
	}
	return s
}

// Put inserts or replaces u, assigning an id when it has none.
func (s *Users) Put(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	s.byID[u.ID] = &cp
}

func (s *Users) Delete(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

func (s *Users) SetStatus(id string, st model.Status) {
	s.mu.Lock()
	if u, ok := s.byID[id]; ok {
		u.Status = st
	}
	s.mu.Unlock()
}

func (s *Users) Get(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, false
	}
	return *u, true
}

func (s *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	email = repository.NormalizeEmail(email)
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) FindByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Users) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if u, ok := s.byID[id]; ok {
		t := at
		u.LastLoginAt = &t
		s.Logins++
	}
	return nil
}

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u.Email = repository.NormalizeEmail(u.Email)
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *Users) UpdateStatus(_ context.Context, id string, st model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = st
	return nil
}

func (s *Users) List(_ context.Context, f repository.UserFilter) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []model.User
	for _, u := range s.byID {
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FirstName+" "+u.LastName), search) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// Blacklist is an in-memory token_blacklist table.
type Blacklist struct {
	mu   sync.Mutex
	rows map[string]time.Time
	Err  error
}

func NewBlacklist() *Blacklist { return &Blacklist{rows: make(map[string]time.Time)} }

func (b *Blacklist) Insert(_ context.Context, hash string, exp time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	if _, ok := b.rows[hash]; !ok {
		b.rows[hash] = exp
	}
	return nil
}

func (b *Blacklist) IsActive(_ context.Context, hash string, now time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return false, b.Err
	}
	exp, ok := b.rows[hash]
	return ok && exp.After(now), nil
}

func (b *Blacklist) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return 0, b.Err
	}
	var n int64
	for h, exp := range b.rows {
		if !exp.After(now) {
			delete(b.rows, h)
			n++
		}
	}
	return n, nil
}

func (b *Blacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows)
}

// Events records published auth events.
type Events struct {
	mu     sync.Mutex
	events []queue.AuthEvent
	Err    error
}

func (e *Events) Publish(_ context.Context, ev queue.AuthEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.events = append(e.events, ev)
	return nil
}

func (e *Events) All() []queue.AuthEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]queue.AuthEvent(nil), e.events...)
}

// ErrBoom is a generic storage failure for error-path tests.
var ErrBoom = errors.New("boom")
