package catalog

import (
	"context"
	"errors"
	"time"

	"carbon-tracker-go/pkg/logger"
)

type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return NewServiceWithCache(repo, noopCache{}, 0, log)
}

func NewServiceWithCache(repo Repository, cache Cache, ttl time.Duration, log logger.Logger) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, log: log}
}

func (s *Service) ListActivityTypes(ctx context.Context) ([]ActivityType, error) {
	items, ok, err := s.cache.GetActivityTypes(ctx)
	if err != nil {
		s.log.InternalError("catalog.activity_types: cache read failed", err)
	}
	if ok {
		return items, nil
	}

	items, err = s.repo.ListActivityTypes(ctx)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.cache.SetActivityTypes(ctx, items, s.ttl); err != nil {
			s.log.InternalError("catalog.activity_types: cache write failed", err)
		}
	}
	return items, nil
}

func (s *Service) GetActivityType(ctx context.Context, id int64) (*ActivityType, error) {
	if id <= 0 {
		return nil, ErrActivityTypeNotFound
	}
	return s.repo.GetActivityType(ctx, id)
}

func (s *Service) ListUnits(ctx context.Context) ([]Unit, error) {
	items, ok, err := s.cache.GetUnits(ctx)
	if err != nil {
		s.log.InternalError("catalog.units: cache read failed", err)
	}
	if ok {
		return items, nil
	}

	items, err = s.repo.ListUnits(ctx)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.cache.SetUnits(ctx, items, s.ttl); err != nil {
			s.log.InternalError("catalog.units: cache write failed", err)
		}
	}
	return items, nil
}

// UnitName is display-only, so any lookup failure yields nil instead of an
// error.
func (s *Service) UnitName(ctx context.Context, id *int64) *string {
	if id == nil || *id <= 0 {
		return nil
	}

	unit, err := s.repo.GetUnit(ctx, *id)
	if err != nil {
		if !errors.Is(err, ErrUnitNotFound) {
			s.log.InternalError("catalog.unit_name: lookup failed", err, "unit_id", *id)
		}
		return nil
	}
	return &unit.Name
}

// Seed upserts units first, then activity types, resolving each activity's
// unit by name. It is safe to run repeatedly.
func (s *Service) Seed(ctx context.Context, data SeedData) error {
	unitIDs := make(map[string]int64, len(data.Units))
	for _, name := range data.Units {
		unit := Unit{Name: name}
		if err := s.repo.UpsertUnit(ctx, &unit); err != nil {
			return err
		}
		unitIDs[name] = unit.ID
	}

	for _, item := range data.ActivityTypes {
		activityType := item.ActivityType
		if id, ok := unitIDs[item.Unit]; ok {
			activityType.UnitID = &id
		}
		if err := s.repo.UpsertActivityType(ctx, &activityType); err != nil {
			return err
		}
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.InternalError("catalog.seed: cache invalidate failed", err)
	}
	return nil
}
