package inmemory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	companydomain "carbon-tracker-go/internal/domain/company"
)

// CompanyStore serializes transactions with a single mutex; the methods called
// inside a transaction run on an unlocked view.
type CompanyStore struct {
	txMu  sync.Mutex
	state *companyState
}

type companyState struct {
	mu        sync.RWMutex
	companies map[int64]companydomain.Company
	members   map[int64]companydomain.Member
	nextID    int64
}

func NewCompanyStore() *CompanyStore {
	return &CompanyStore{state: &companyState{
		companies: make(map[int64]companydomain.Company),
		members:   make(map[int64]companydomain.Member),
		nextID:    1,
	}}
}

func (s *CompanyStore) Transaction(ctx context.Context, fn func(companydomain.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.state.mu.RLock()
	snapshot := s.state.clone()
	s.state.mu.RUnlock()

	if err := fn(&CompanyStore{state: snapshot}); err != nil {
		return err
	}

	s.state.mu.Lock()
	s.state.companies = snapshot.companies
	s.state.members = snapshot.members
	s.state.nextID = snapshot.nextID
	s.state.mu.Unlock()
	return nil
}

func (s *CompanyStore) GetCompanyByUser(_ context.Context, userID int64) (*companydomain.Company, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	member, ok := s.state.members[userID]
	if !ok {
		return nil, companydomain.ErrCompanyNotFound
	}
	company, ok := s.state.companies[member.CompanyID]
	if !ok {
		return nil, companydomain.ErrCompanyNotFound
	}
	return &company, nil
}

func (s *CompanyStore) GetCompanyByCode(_ context.Context, code string) (*companydomain.Company, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	for _, company := range s.state.companies {
		if company.Code == code {
			return &company, nil
		}
	}
	return nil, companydomain.ErrCompanyCodeNotFound
}

func (s *CompanyStore) GetMemberByUser(_ context.Context, userID int64) (*companydomain.Member, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	member, ok := s.state.members[userID]
	if !ok {
		return nil, companydomain.ErrMemberNotFound
	}
	return &member, nil
}

func (s *CompanyStore) ListMembers(_ context.Context, companyID int64) ([]companydomain.Member, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	members := make([]companydomain.Member, 0)
	for _, member := range s.state.members {
		if member.CompanyID == companyID {
			members = append(members, member)
		}
	}
	slices.SortFunc(members, func(a, b companydomain.Member) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return members, nil
}

func (s *CompanyStore) CreateCompany(_ context.Context, company *companydomain.Company) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	now := time.Now().UTC()
	company.ID = s.state.nextID
	company.CreatedAt = now
	company.UpdatedAt = now
	s.state.nextID++
	s.state.companies[company.ID] = *company
	return nil
}

func (s *CompanyStore) AddMember(_ context.Context, member *companydomain.Member) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	member.JoinedAt = time.Now().UTC()
	s.state.members[member.UserID] = *member
	return nil
}

func (s *CompanyStore) DeleteCompany(_ context.Context, companyID int64) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	delete(s.state.companies, companyID)
	for userID, member := range s.state.members {
		if member.CompanyID == companyID {
			delete(s.state.members, userID)
		}
	}
	return nil
}

func (s *CompanyStore) DeleteMember(_ context.Context, companyID, userID int64) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if member, ok := s.state.members[userID]; ok && member.CompanyID == companyID {
		delete(s.state.members, userID)
	}
	return nil
}

func (s *CompanyStore) CountMembers(_ context.Context, companyID int64) (int64, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	var count int64
	for _, member := range s.state.members {
		if member.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

func (s *CompanyStore) IsUserInCompany(_ context.Context, userID int64) (bool, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	_, ok := s.state.members[userID]
	return ok, nil
}

func (s *CompanyStore) IsCodeTaken(_ context.Context, code string) (bool, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	for _, company := range s.state.companies {
		if company.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (c *companyState) clone() *companyState {
	return &companyState{
		companies: maps.Clone(c.companies),
		members:   maps.Clone(c.members),
		nextID:    c.nextID,
	}
}
