package user

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureUser returns the local user for identity, creating it on first sight.
func (s *Service) EnsureUser(ctx context.Context, identity Identity) (*User, error) {
	authID := strings.TrimSpace(identity.AuthID)
	if authID == "" {
		return nil, ErrMissingIdentity
	}

	user := User{AuthID: authID}
	if email := strings.TrimSpace(identity.Email); email != "" {
		user.Email = &email
	}
	if name := strings.TrimSpace(identity.Name); name != "" {
		user.Name = &name
	}

	if err := s.repo.UpsertByAuthID(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, ErrUserNotFound
	}
	return s.repo.GetByID(ctx, id)
}
