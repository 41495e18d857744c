package user

import (
	"context"
	"errors"
	"time"

	userdomain "carbon-tracker-go/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) UpsertByAuthID(ctx context.Context, user *userdomain.User) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if user.Email != nil {
		updates["email"] = user.Email
	}
	if user.Name != nil {
		updates["name"] = user.Name
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "auth_id"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(user).Error
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*userdomain.User, error) {
	var user userdomain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
