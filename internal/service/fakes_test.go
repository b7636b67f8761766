package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository with a unique email index.
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	createErr error
	listErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) seed(name, email, hash string, role domain.Role, age int) *domain.User {
	u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if age > 0 {
		u.Age = &age
	}
	if err := r.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, id string, changes domain.UserChanges) (*domain.User, error) {
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
	u.UpdatedAt = time.Now()
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) List(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) UpsertAdmin(_ context.Context, name, email, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.Name, u.PasswordHash, u.Role = name, passwordHash, domain.RoleAdmin
			clone := *u
			return &clone, nil
		}
	}
	u := &domain.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash, Role: domain.RoleAdmin}
	r.users[u.ID] = u
	clone := *u
	return &clone, nil
}

// fakeHasher stores passwords reversibly and counts comparisons.
type fakeHasher struct {
	mu       sync.Mutex
	compared []string
}

func (h *fakeHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (h *fakeHasher) Compare(hashed, plain string) (bool, error) {
	h.mu.Lock()
	h.compared = append(h.compared, hashed)
	h.mu.Unlock()
	if !strings.HasPrefix(hashed, "hashed:") {
		return false, errors.New("malformed hash")
	}
	return hashed == "hashed:"+plain, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
	err       error
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return d.err
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.published))
	for i, e := range d.published {
		out[i] = e.Type
	}
	return out
}

// fakeWebhookRepo is an in-memory WebhookEventRepository.
type fakeWebhookRepo struct {
	mu     sync.Mutex
	events map[string]*domain.WebhookEvent
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{events: make(map[string]*domain.WebhookEvent)}
}

func (r *fakeWebhookRepo) Create(_ context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.EventID]; ok {
		return repository.ErrDuplicateEvent
	}
	event.ID = uuid.NewString()
	event.Status = domain.WebhookEventReceived
	event.ReceivedAt = time.Now()
	clone := *event
	r.events[event.EventID] = &clone
	return nil
}

func (r *fakeWebhookRepo) GetByEventID(_ context.Context, eventID string) (*domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *fakeWebhookRepo) MarkProcessed(_ context.Context, eventID string) error {
	return r.mark(eventID, domain.WebhookEventProcessed, "")
}

func (r *fakeWebhookRepo) MarkFailed(_ context.Context, eventID, reason string) error {
	return r.mark(eventID, domain.WebhookEventFailed, reason)
}

func (r *fakeWebhookRepo) mark(eventID string, status domain.WebhookEventStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	e.Status = status
	if status == domain.WebhookEventFailed {
		e.FailedAt = &now
		e.FailReason = repository.TruncateReason(reason)
	} else {
		e.ProcessedAt = &now
	}
	return nil
}

// input builds a UserInput from the keys present in kv.
func input(kv map[string]any) domain.UserInput {
	var in domain.UserInput
	for key, value := range kv {
		field := domain.Field{Set: true, Value: value}
		switch key {
		case "name":
			in.Name = field
		case "age":
			in.Age = field
		case "email":
			in.Email = field
		case "password":
			in.Password = field
		}
	}
	return in
}
