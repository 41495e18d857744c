package inmemory

import (
	"context"
	"sync"
	"time"

	userdomain "carbon-tracker-go/internal/domain/user"
)

type UserStore struct {
	mu     sync.RWMutex
	byID   map[int64]userdomain.User
	byAuth map[string]int64
	nextID int64
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:   make(map[int64]userdomain.User),
		byAuth: make(map[string]int64),
		nextID: 1,
	}
}

func (s *UserStore) UpsertByAuthID(_ context.Context, user *userdomain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if id, ok := s.byAuth[user.AuthID]; ok {
		stored := s.byID[id]
		if user.Email != nil {
			stored.Email = user.Email
		}
		if user.Name != nil {
			stored.Name = user.Name
		}
		stored.UpdatedAt = now
		s.byID[id] = stored
		*user = stored
		return nil
	}

	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextID++
	s.byID[user.ID] = *user
	s.byAuth[user.AuthID] = user.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id int64) (*userdomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return &user, nil
}
