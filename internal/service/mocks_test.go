package service

import (
	"context"
	"database/sql"
	"net/http"
	"sync"

	"github.com/noah-isme/user-auth-api/internal/models"
)

type memUserStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	setErr   error
	setCalls int
}

func newMemUserStore(users ...*models.User) *memUserStore {
	store := &memUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (m *memUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserStore) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.HasRefreshToken(token) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserStore) SetRefreshToken(ctx context.Context, id string, token *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return nil, m.setErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if token == nil {
		u.RefreshToken = nil
	} else {
		value := *token
		u.RefreshToken = &value
	}
	copy := *u
	return &copy, nil
}

func (m *memUserStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *memUserStore) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *memUserStore) UpdateContact(ctx context.Context, id string, contact *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.Contact = contact
	copy := *u
	return &copy, nil
}


func (m *memUserStore) refreshOf(id string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u.RefreshToken
	}
	return nil
}

type memAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (m *memAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *memAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type recordedCookie struct {
	Value    string
	MaxAge   int
	HTTPOnly bool
	Path     string
	SameSite http.SameSite
}

type fakeCookieJar struct {
	sameSite http.SameSite
	cookies  map[string]recordedCookie
}

func newFakeCookieJar() *fakeCookieJar {
	return &fakeCookieJar{cookies: make(map[string]recordedCookie)}
}

func (j *fakeCookieJar) SetSameSite(sameSite http.SameSite) { j.sameSite = sameSite }

func (j *fakeCookieJar) SetCookie(name, value string, maxAge int, path, domain string, secure, httpOnly bool) {
	j.cookies[name] = recordedCookie{Value: value, MaxAge: maxAge, HTTPOnly: httpOnly, Path: path, SameSite: j.sameSite}
}
