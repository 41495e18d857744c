package user

import "time"

// User is the local account mapped from an auth provider identity. Consumption
// rows reference its integer id.
type User struct {
	ID        int64     `gorm:"primaryKey"`
	AuthID    string    `gorm:"not null;uniqueIndex"`
	Email     *string   `gorm:"type:text"`
	Name      *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Identity is what the auth provider tells us about the caller.
type Identity struct {
	AuthID string
	Email  string
	Name   string
}
