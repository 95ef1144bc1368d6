package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
)

// MemoryStore keeps contacts in process memory. It enforces the same unique email rule as the
// SQL stores and is meant for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	lastId   int64
	contacts map[int64]model.Contact
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts: make(map[int64]model.Contact),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]model.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		contacts = append(contacts, copyContact(c))
	}
	sort.Slice(contacts, func(i, j int) bool {
		if !contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].CreatedAt.After(contacts[j].CreatedAt)
		}
		return contacts[i].Id > contacts[j].Id
	})
	return contacts, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = copyContact(c)
	return &c, nil
}

func (s *MemoryStore) Create(ctx context.Context, c *model.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(c.Email, 0) {
		return ErrConflict
	}
	s.lastId++
	c.Id = s.lastId
	c.CreatedAt = s.now()
	s.contacts[c.Id] = copyContact(*c)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c *model.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.contacts[c.Id]
	if !ok {
		return ErrNotFound
	}
	if s.emailTaken(c.Email, c.Id) {
		return ErrConflict
	}
	existing.Name = c.Name
	existing.Email = c.Email
	existing.Phone = c.Phone
	s.contacts[c.Id] = copyContact(existing)
	c.CreatedAt = existing.CreatedAt
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// emailTaken reports whether a contact other than the one with id uses the email.
// The caller must hold the lock.
func (s *MemoryStore) emailTaken(email string, id int64) bool {
	for _, c := range s.contacts {
		if c.Email == email && c.Id != id {
			return true
		}
	}
	return false
}

// copyContact detaches the phone pointer from the caller's value.
func copyContact(c model.Contact) model.Contact {
	if c.Phone != nil {
		phone := *c.Phone
		c.Phone = &phone
	}
	return c
}
