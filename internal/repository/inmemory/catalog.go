package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	catalogdomain "carbon-tracker-go/internal/domain/catalog"
)

type CatalogStore struct {
	mu            sync.RWMutex
	activityTypes map[int64]catalogdomain.ActivityType
	units         map[int64]catalogdomain.Unit
	nextID        int64
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		activityTypes: make(map[int64]catalogdomain.ActivityType),
		units:         make(map[int64]catalogdomain.Unit),
		nextID:        1,
	}
}

func (s *CatalogStore) ListActivityTypes(context.Context) ([]catalogdomain.ActivityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]catalogdomain.ActivityType, 0, len(s.activityTypes))
	for _, item := range s.activityTypes {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b catalogdomain.ActivityType) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return items, nil
}

func (s *CatalogStore) GetActivityType(_ context.Context, id int64) (*catalogdomain.ActivityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.activityTypes[id]
	if !ok {
		return nil, catalogdomain.ErrActivityTypeNotFound
	}
	return &item, nil
}

func (s *CatalogStore) ListUnits(context.Context) ([]catalogdomain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]catalogdomain.Unit, 0, len(s.units))
	for _, item := range s.units {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b catalogdomain.Unit) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return items, nil
}

func (s *CatalogStore) GetUnit(_ context.Context, id int64) (*catalogdomain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.units[id]
	if !ok {
		return nil, catalogdomain.ErrUnitNotFound
	}
	return &item, nil
}

func (s *CatalogStore) UpsertUnit(_ context.Context, unit *catalogdomain.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.units {
		if existing.Name == unit.Name {
			unit.ID = id
			return nil
		}
	}
	unit.ID = s.allocateID()
	s.units[unit.ID] = *unit
	return nil
}

func (s *CatalogStore) UpsertActivityType(_ context.Context, activityType *catalogdomain.ActivityType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.activityTypes {
		if existing.Name == activityType.Name {
			activityType.ID = id
			s.activityTypes[id] = *activityType
			return nil
		}
	}
	activityType.ID = s.allocateID()
	s.activityTypes[activityType.ID] = *activityType
	return nil
}

func (s *CatalogStore) allocateID() int64 {
	id := s.nextID
	s.nextID++
	return id
}
