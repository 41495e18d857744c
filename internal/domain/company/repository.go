package company

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetCompanyByUser(ctx context.Context, userID int64) (*Company, error)
	GetCompanyByCode(ctx context.Context, code string) (*Company, error)
	GetMemberByUser(ctx context.Context, userID int64) (*Member, error)
	ListMembers(ctx context.Context, companyID int64) ([]Member, error)
	CreateCompany(ctx context.Context, company *Company) error
	AddMember(ctx context.Context, member *Member) error
	DeleteCompany(ctx context.Context, companyID int64) error
	DeleteMember(ctx context.Context, companyID, userID int64) error
	CountMembers(ctx context.Context, companyID int64) (int64, error)
	IsUserInCompany(ctx context.Context, userID int64) (bool, error)
	IsCodeTaken(ctx context.Context, code string) (bool, error)
}
