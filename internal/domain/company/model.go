package company

import "time"

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Company struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Code      string    `gorm:"size:6;not null;uniqueIndex"`
	OwnerID   int64     `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}

// RoleOf is the membership role userID holds in c.
func (c Company) RoleOf(userID int64) string {
	if c.OwnerID == userID {
		return RoleOwner
	}
	return RoleMember
}

type Member struct {
	CompanyID int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"primaryKey;uniqueIndex"`
	Role      string    `gorm:"type:varchar(16);not null"`
	JoinedAt  time.Time `gorm:"autoCreateTime"`

	Company Company `gorm:"foreignKey:CompanyID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Member) TableName() string {
	return "company_members"
}

type CreateInput struct {
	Name string `json:"name" validate:"required,min=2,max=80"`
}

type JoinInput struct {
	Code string `json:"code" validate:"required,len=6,alphanum"`
}
