package company

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompanyRepo struct {
	companies map[int64]*Company
	members   map[int64]*Member
	codes     map[string]int64
	nextID    int64
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{
		companies: make(map[int64]*Company),
		members:   make(map[int64]*Member),
		codes:     make(map[string]int64),
		nextID:    1,
	}
}

func (r *fakeCompanyRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeCompanyRepo) GetCompanyByUser(ctx context.Context, userID int64) (*Company, error) {
	member, ok := r.members[userID]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	company, ok := r.companies[member.CompanyID]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	return company, nil
}

func (r *fakeCompanyRepo) GetCompanyByCode(ctx context.Context, code string) (*Company, error) {
	id, ok := r.codes[code]
	if !ok {
		return nil, ErrCompanyCodeNotFound
	}
	return r.companies[id], nil
}

func (r *fakeCompanyRepo) GetMemberByUser(ctx context.Context, userID int64) (*Member, error) {
	member, ok := r.members[userID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (r *fakeCompanyRepo) ListMembers(ctx context.Context, companyID int64) ([]Member, error) {
	items := make([]Member, 0)
	for userID := int64(1); userID <= 100; userID++ {
		if member, ok := r.members[userID]; ok && member.CompanyID == companyID {
			items = append(items, *member)
		}
	}
	return items, nil
}

func (r *fakeCompanyRepo) CreateCompany(ctx context.Context, company *Company) error {
	company.ID = r.nextID
	r.nextID++
	r.companies[company.ID] = company
	r.codes[company.Code] = company.ID
	return nil
}

func (r *fakeCompanyRepo) AddMember(ctx context.Context, member *Member) error {
	r.members[member.UserID] = member
	return nil
}

func (r *fakeCompanyRepo) DeleteCompany(ctx context.Context, companyID int64) error {
	company, ok := r.companies[companyID]
	if !ok {
		return ErrCompanyNotFound
	}
	delete(r.codes, company.Code)
	delete(r.companies, companyID)
	return nil
}

func (r *fakeCompanyRepo) DeleteMember(ctx context.Context, companyID, userID int64) error {
	if _, ok := r.members[userID]; !ok {
		return ErrMemberNotFound
	}
	delete(r.members, userID)
	return nil
}

func (r *fakeCompanyRepo) CountMembers(ctx context.Context, companyID int64) (int64, error) {
	var count int64
	for _, member := range r.members {
		if member.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCompanyRepo) IsUserInCompany(ctx context.Context, userID int64) (bool, error) {
	_, ok := r.members[userID]
	return ok, nil
}

func (r *fakeCompanyRepo) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	_, ok := r.codes[code]
	return ok, nil
}

func TestCreateCompanyMakesOwner(t *testing.T) {
	repo := newFakeCompanyRepo()
	service := NewService(repo)

	company, err := service.CreateCompany(context.Background(), 1, CreateInput{Name: "  Acme  "})
	require.NoError(t, err)

	assert.Equal(t, "Acme", company.Name)
	assert.Len(t, company.Code, companyCodeLength)
	assert.Equal(t, int64(1), company.OwnerID)
	assert.Equal(t, RoleOwner, repo.members[1].Role)

	_, err = service.CreateCompany(context.Background(), 1, CreateInput{Name: "Second"})
	assert.ErrorIs(t, err, ErrAlreadyInCompany)
}

func TestCreateCompanyValidatesName(t *testing.T) {
	service := NewService(newFakeCompanyRepo())

	_, err := service.CreateCompany(context.Background(), 1, CreateInput{Name: "   "})

	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "name", inputErr.Field)
}

func TestJoinCompanyByCode(t *testing.T) {
	repo := newFakeCompanyRepo()
	service := NewService(repo)
	ctx := context.Background()

	created, err := service.CreateCompany(ctx, 1, CreateInput{Name: "Acme"})
	require.NoError(t, err)

	joined, err := service.JoinCompany(ctx, 2, JoinInput{Code: " " + created.Code + " "})
	require.NoError(t, err)
	assert.Equal(t, created.ID, joined.ID)
	assert.Equal(t, RoleMember, repo.members[2].Role)

	ids, err := service.MemberIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	_, err = service.JoinCompany(ctx, 3, JoinInput{Code: "ZZZZZZ"})
	assert.ErrorIs(t, err, ErrCompanyCodeNotFound)

	_, err = service.JoinCompany(ctx, 3, JoinInput{Code: "ABC"})
	var inputErr *InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestLeaveCompany(t *testing.T) {
	repo := newFakeCompanyRepo()
	service := NewService(repo)
	ctx := context.Background()

	created, err := service.CreateCompany(ctx, 1, CreateInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = service.JoinCompany(ctx, 2, JoinInput{Code: created.Code})
	require.NoError(t, err)

	assert.ErrorIs(t, service.LeaveCompany(ctx, 1), ErrOwnerMustLeaveLast)

	require.NoError(t, service.LeaveCompany(ctx, 2))
	require.NoError(t, service.LeaveCompany(ctx, 1))
	assert.Empty(t, repo.companies)

	_, err = service.GetCompanyByUser(ctx, 1)
	assert.ErrorIs(t, err, ErrCompanyNotFound)
	assert.ErrorIs(t, service.LeaveCompany(ctx, 1), ErrMemberNotFound)
}

func TestJoinCompanyRoleFollowsCompanyOwner(t *testing.T) {
	repo := newFakeCompanyRepo()
	service := NewService(repo)
	ctx := context.Background()

	company := &Company{Name: "Acme", Code: "ACME42", OwnerID: 7}
	require.NoError(t, repo.CreateCompany(ctx, company))

	_, err := service.JoinCompany(ctx, 3, JoinInput{Code: "acme42"})
	require.NoError(t, err)
	assert.Equal(t, RoleMember, repo.members[3].Role)

	_, err = service.JoinCompany(ctx, 7, JoinInput{Code: "ACME42"})
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, repo.members[7].Role)

	assert.ErrorIs(t, service.LeaveCompany(ctx, 7), ErrOwnerMustLeaveLast)
}

func TestListMembersPutsOwnerFirst(t *testing.T) {
	repo := newFakeCompanyRepo()
	service := NewService(repo)
	ctx := context.Background()

	created, err := service.CreateCompany(ctx, 5, CreateInput{Name: "Acme"})
	require.NoError(t, err)
	for _, userID := range []int64{4, 2} {
		_, err := service.JoinCompany(ctx, userID, JoinInput{Code: created.Code})
		require.NoError(t, err)
	}

	members, err := service.ListMembers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, int64(5), members[0].UserID)
	assert.Equal(t, RoleOwner, members[0].Role)
	assert.Equal(t, []int64{2, 4}, []int64{members[1].UserID, members[2].UserID})

	ids, err := service.MemberIDs(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 2, 4}, ids)
}

func TestCompanyRoleOf(t *testing.T) {
	company := Company{OwnerID: 1}

	assert.Equal(t, RoleOwner, company.RoleOf(1))
	assert.Equal(t, RoleMember, company.RoleOf(2))
}

func TestGenerateCodeAlphabet(t *testing.T) {
	code, err := generateCode(32)
	require.NoError(t, err)

	for _, r := range code {
		assert.NotContains(t, "01IO", string(r))
	}
}
