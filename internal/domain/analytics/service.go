package analytics

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Service struct {
	repo                Repository
	topActivitiesConfig TopActivitiesConfig
	topActivitiesCache  topActivitiesCache
	now                 func() time.Time
}

func NewService(repo Repository) *Service {
	return NewServiceWithTopActivitiesConfig(repo, TopActivitiesConfig{
		Enabled:       true,
		LookbackDays:  defaultTopActivitiesLookbackDays,
		MinRecords:    defaultTopActivitiesMinRecords,
		ResponseCount: defaultTopActivitiesResponseCount,
		CacheTTL:      defaultTopActivitiesCacheTTL,
	})
}

func NewServiceWithTopActivitiesConfig(repo Repository, cfg TopActivitiesConfig) *Service {
	cfg = normalizeTopActivitiesConfig(cfg)

	return &Service{
		repo:                repo,
		topActivitiesConfig: cfg,
		topActivitiesCache: topActivitiesCache{
			items: make(map[string]topActivitiesCacheItem),
		},
		now: time.Now,
	}
}

func (s *Service) Summary(ctx context.Context, scope Scope, filter SummaryFilter) (SummaryResult, error) {
	if err := checkScope(scope, filter.From, filter.To); err != nil {
		return SummaryResult{}, err
	}

	result, err := s.repo.Summary(ctx, scope, filter)
	if err != nil {
		return SummaryResult{}, err
	}

	days := daysBetweenInclusive(filter.From, filter.To)
	if days > 0 {
		result.AvgPerDay = result.TotalCO2 / float64(days)
	}

	return result, nil
}

func (s *Service) Timeseries(ctx context.Context, scope Scope, filter TimeseriesFilter) ([]TimeseriesPoint, error) {
	if err := checkScope(scope, filter.From, filter.To); err != nil {
		return nil, err
	}

	switch filter.GroupBy {
	case "":
		filter.GroupBy = GroupByDay
	case GroupByDay, GroupByWeek, GroupByMonth:
	default:
		return nil, ErrInvalidGroupBy
	}

	return s.repo.Timeseries(ctx, scope, filter)
}

func (s *Service) ByActivity(ctx context.Context, scope Scope, filter ByActivityFilter) ([]ByActivityRow, error) {
	if err := checkScope(scope, filter.From, filter.To); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultByActivityLimit
	}

	return s.repo.ByActivity(ctx, scope, filter)
}

func (s *Service) TopActivities(ctx context.Context, scope Scope) (TopActivitiesResult, error) {
	if !s.topActivitiesConfig.Enabled {
		return TopActivitiesResult{
			Status: TopActivitiesStatusDisabled,
			Items:  []ByActivityRow{},
		}, nil
	}
	if len(scope.UserIDs) == 0 {
		return TopActivitiesResult{}, ErrEmptyScope
	}

	filter := s.topActivitiesFilter()
	if s.topActivitiesConfig.CacheTTL <= 0 {
		rows, recordsRead, err := s.repo.TopActivities(ctx, scope, filter)
		if err != nil {
			return TopActivitiesResult{}, err
		}
		return s.buildTopActivitiesResult(rows, recordsRead), nil
	}

	now := s.now()
	cacheKey := topActivitiesCacheKey(scope)
	if result, ok := s.topActivitiesCache.Get(cacheKey, now); ok {
		return result, nil
	}

	rows, recordsRead, err := s.repo.TopActivities(ctx, scope, filter)
	if err != nil {
		return TopActivitiesResult{}, err
	}

	result := s.buildTopActivitiesResult(rows, recordsRead)
	s.topActivitiesCache.Set(cacheKey, result, now.Add(s.topActivitiesConfig.CacheTTL))
	return result, nil
}

func (s *Service) Compare(ctx context.Context, scope Scope, filter CompareFilter) (CompareResult, error) {
	if err := checkScope(scope, filter.FromA, filter.ToA); err != nil {
		return CompareResult{}, err
	}
	if filter.FromB.After(filter.ToB) {
		return CompareResult{}, ErrInvalidRange
	}

	resultA, err := s.repo.Summary(ctx, scope, SummaryFilter{
		From:            filter.FromA,
		To:              filter.ToA,
		ActivityTypeIDs: filter.ActivityTypeIDs,
	})
	if err != nil {
		return CompareResult{}, err
	}

	resultB, err := s.repo.Summary(ctx, scope, SummaryFilter{
		From:            filter.FromB,
		To:              filter.ToB,
		ActivityTypeIDs: filter.ActivityTypeIDs,
	})
	if err != nil {
		return CompareResult{}, err
	}

	deltaAmount := resultA.TotalCO2 - resultB.TotalCO2
	deltaPercent := 0.0
	if resultB.TotalCO2 != 0 {
		deltaPercent = (deltaAmount / resultB.TotalCO2) * 100
	}

	return CompareResult{
		PeriodA: PeriodSummary{
			From:  filter.FromA.Format(time.DateOnly),
			To:    filter.ToA.Format(time.DateOnly),
			Total: resultA.TotalCO2,
			Count: resultA.Count,
		},
		PeriodB: PeriodSummary{
			From:  filter.FromB.Format(time.DateOnly),
			To:    filter.ToB.Format(time.DateOnly),
			Total: resultB.TotalCO2,
			Count: resultB.Count,
		},
		Delta: DeltaResult{
			Amount:  deltaAmount,
			Percent: deltaPercent,
		},
	}, nil
}

func checkScope(scope Scope, from, to time.Time) error {
	if len(scope.UserIDs) == 0 {
		return ErrEmptyScope
	}
	if from.After(to) {
		return ErrInvalidRange
	}
	return nil
}

func daysBetweenInclusive(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

const (
	defaultByActivityLimit = 10

	defaultTopActivitiesLookbackDays  = 30
	defaultTopActivitiesMinRecords    = 10
	defaultTopActivitiesResponseCount = 5
	defaultTopActivitiesCacheTTL      = time.Minute
)

func normalizeTopActivitiesConfig(cfg TopActivitiesConfig) TopActivitiesConfig {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaultTopActivitiesLookbackDays
	}
	if cfg.MinRecords < 0 {
		cfg.MinRecords = defaultTopActivitiesMinRecords
	}
	if cfg.ResponseCount <= 0 {
		cfg.ResponseCount = defaultTopActivitiesResponseCount
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 0
	}
	return cfg
}

func (s *Service) topActivitiesFilter() TopActivitiesFilter {
	current := s.now().UTC()
	to := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -(s.topActivitiesConfig.LookbackDays - 1))

	return TopActivitiesFilter{
		From:          from,
		To:            to,
		ResponseCount: s.topActivitiesConfig.ResponseCount,
	}
}

func (s *Service) buildTopActivitiesResult(rows []ByActivityRow, recordsRead int64) TopActivitiesResult {
	if recordsRead < int64(s.topActivitiesConfig.MinRecords) || len(rows) == 0 {
		return TopActivitiesResult{
			Status: TopActivitiesStatusNeedMoreData,
			Items:  []ByActivityRow{},
		}
	}

	if len(rows) > s.topActivitiesConfig.ResponseCount {
		rows = rows[:s.topActivitiesConfig.ResponseCount]
	}

	return TopActivitiesResult{
		Status: TopActivitiesStatusOK,
		Items:  slices.Clone(rows),
	}
}

func topActivitiesCacheKey(scope Scope) string {
	ids := slices.Clone(scope.UserIDs)
	slices.Sort(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

type topActivitiesCache struct {
	mu    sync.RWMutex
	items map[string]topActivitiesCacheItem
}

type topActivitiesCacheItem struct {
	result    TopActivitiesResult
	expiresAt time.Time
}

func (c *topActivitiesCache) Get(key string, now time.Time) (TopActivitiesResult, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return TopActivitiesResult{}, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[key]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return TopActivitiesResult{}, false
	}

	return cloneTopActivitiesResult(item.result), true
}

func (c *topActivitiesCache) Set(key string, result TopActivitiesResult, expiresAt time.Time) {
	c.mu.Lock()
	c.items[key] = topActivitiesCacheItem{
		result:    cloneTopActivitiesResult(result),
		expiresAt: expiresAt,
	}
	c.mu.Unlock()
}

func cloneTopActivitiesResult(result TopActivitiesResult) TopActivitiesResult {
	return TopActivitiesResult{
		Status: result.Status,
		Items:  slices.Clone(result.Items),
	}
}
