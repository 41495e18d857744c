package company

import (
	"context"
	"errors"

	companydomain "carbon-tracker-go/internal/domain/company"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(companydomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetCompanyByUser(ctx context.Context, userID int64) (*companydomain.Company, error) {
	var company companydomain.Company
	err := r.db.WithContext(ctx).
		Table("companies").
		Select("companies.*").
		Joins("join company_members on company_members.company_id = companies.id").
		Where("company_members.user_id = ?", userID).
		First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, companydomain.ErrCompanyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *PostgresRepository) GetCompanyByCode(ctx context.Context, code string) (*companydomain.Company, error) {
	var company companydomain.Company
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, companydomain.ErrCompanyCodeNotFound
		}
		return nil, err
	}
	return &company, nil
}

func (r *PostgresRepository) GetMemberByUser(ctx context.Context, userID int64) (*companydomain.Member, error) {
	var member companydomain.Member
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, companydomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, companyID int64) ([]companydomain.Member, error) {
	var members []companydomain.Member
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) CreateCompany(ctx context.Context, company *companydomain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *companydomain.Member) error {
	return r.db.WithContext(ctx).Omit("Company").Create(member).Error
}

func (r *PostgresRepository) DeleteCompany(ctx context.Context, companyID int64) error {
	return r.db.WithContext(ctx).Delete(&companydomain.Company{}, "id = ?", companyID).Error
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, companyID, userID int64) error {
	return r.db.WithContext(ctx).Delete(&companydomain.Member{}, "company_id = ? AND user_id = ?", companyID, userID).Error
}

func (r *PostgresRepository) CountMembers(ctx context.Context, companyID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&companydomain.Member{}).Where("company_id = ?", companyID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) IsUserInCompany(ctx context.Context, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&companydomain.Member{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&companydomain.Company{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
