package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/repository"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]domain.User)}
}

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) Update(_ context.Context, id string, changes domain.UserChanges) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if changes.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *changes.Email {
				return nil, repository.ErrEmailTaken
			}
		}
		u.Email = *changes.Email
	}
	if changes.Name != nil {
		u.Name = *changes.Name
	}
	if changes.Age != nil {
		age := *changes.Age
		u.Age = &age
	}
	if changes.PasswordHash != nil {
		u.PasswordHash = *changes.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return &u, nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryUsers) List(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryUsers) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUsers) UpsertAdmin(_ context.Context, name, email, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := domain.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash, Role: domain.RoleAdmin, CreatedAt: time.Now().UTC()}
	r.users[u.ID] = u
	return &u, nil
}

type memoryWebhookEvents struct {
	mu     sync.Mutex
	events map[string]domain.WebhookEvent
}

func newMemoryWebhookEvents() *memoryWebhookEvents {
	return &memoryWebhookEvents{events: make(map[string]domain.WebhookEvent)}
}

func (r *memoryWebhookEvents) Create(_ context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.EventID]; ok {
		return repository.ErrDuplicateEvent
	}
	event.ID = uuid.NewString()
	event.Status = domain.WebhookEventReceived
	r.events[event.EventID] = *event
	return nil
}

func (r *memoryWebhookEvents) GetByEventID(_ context.Context, eventID string) (*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *memoryWebhookEvents) MarkProcessed(_ context.Context, eventID string) error {
	return r.mark(eventID, domain.WebhookEventProcessed)
}

func (r *memoryWebhookEvents) MarkFailed(_ context.Context, eventID, _ string) error {
	return r.mark(eventID, domain.WebhookEventFailed)
}

func (r *memoryWebhookEvents) mark(eventID string, status domain.WebhookEventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	r.events[eventID] = e
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

var errDown = errors.New("connection refused")
