package user

import "context"

type Repository interface {
	// UpsertByAuthID inserts the user or refreshes email and name, and fills
	// in the stored id.
	UpsertByAuthID(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
}
