package company

import (
	"cmp"
	"context"
	"crypto/rand"
	"math/big"
	"slices"
	"strings"

	"carbon-tracker-go/internal/validation"
)

const (
	companyCodeLength   = 6
	companyCodeAttempts = 10
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetCompanyByUser(ctx context.Context, userID int64) (*Company, error) {
	return s.repo.GetCompanyByUser(ctx, userID)
}

func (s *Service) CreateCompany(ctx context.Context, userID int64, input CreateInput) (*Company, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate(input); err != nil {
		return nil, err
	}

	var result Company
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := ensureUnaffiliated(ctx, tx, userID); err != nil {
			return err
		}

		code, err := generateUniqueCode(ctx, tx)
		if err != nil {
			return err
		}

		result = Company{Name: input.Name, Code: code, OwnerID: userID}
		if err := tx.CreateCompany(ctx, &result); err != nil {
			return err
		}
		return enroll(ctx, tx, result, userID)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// JoinCompany adds the caller to the company behind code. The role comes
// from the company record, never from the caller.
func (s *Service) JoinCompany(ctx context.Context, userID int64, input JoinInput) (*Company, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if err := validate(input); err != nil {
		return nil, err
	}

	var result Company
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := ensureUnaffiliated(ctx, tx, userID); err != nil {
			return err
		}

		company, err := tx.GetCompanyByCode(ctx, input.Code)
		if err != nil {
			return err
		}
		result = *company
		return enroll(ctx, tx, result, userID)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// LeaveCompany removes the caller. An owner may leave only as the last
// member, which also deletes the company.
func (s *Service) LeaveCompany(ctx context.Context, userID int64) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		member, err := tx.GetMemberByUser(ctx, userID)
		if err != nil {
			return err
		}
		if member.Role != RoleOwner {
			return tx.DeleteMember(ctx, member.CompanyID, userID)
		}

		count, err := tx.CountMembers(ctx, member.CompanyID)
		if err != nil {
			return err
		}
		if count > 1 {
			return ErrOwnerMustLeaveLast
		}
		if err := tx.DeleteMember(ctx, member.CompanyID, userID); err != nil {
			return err
		}
		return tx.DeleteCompany(ctx, member.CompanyID)
	})
}

// ListMembers returns the caller's company roster, owner first and the
// rest in join order.
func (s *Service) ListMembers(ctx context.Context, userID int64) ([]Member, error) {
	company, err := s.repo.GetCompanyByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(members, func(a, b Member) int {
		return cmp.Compare(roleRank(a.Role), roleRank(b.Role))
	})
	return members, nil
}

// MemberIDs returns the user ids of the caller's company, used to scope
// company-wide analytics.
func (s *Service) MemberIDs(ctx context.Context, userID int64) ([]int64, error) {
	members, err := s.ListMembers(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	return ids, nil
}

func ensureUnaffiliated(ctx context.Context, tx Repository, userID int64) error {
	inCompany, err := tx.IsUserInCompany(ctx, userID)
	if err != nil {
		return err
	}
	if inCompany {
		return ErrAlreadyInCompany
	}
	return nil
}

func enroll(ctx context.Context, tx Repository, company Company, userID int64) error {
	return tx.AddMember(ctx, &Member{
		CompanyID: company.ID,
		UserID:    userID,
		Role:      company.RoleOf(userID),
	})
}

func roleRank(role string) int {
	if role == RoleOwner {
		return 0
	}
	return 1
}

func validate(input any) error {
	errs := validation.Struct(input)
	if len(errs) == 0 {
		return nil
	}
	return &InputError{Field: errs[0].Field, Message: errs[0].Message}
}

func generateUniqueCode(ctx context.Context, repo Repository) (string, error) {
	for range companyCodeAttempts {
		code, err := generateCode(companyCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := repo.IsCodeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationFailed
}

func generateCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	size := big.NewInt(int64(len(alphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for range length {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}

	return builder.String(), nil
}
