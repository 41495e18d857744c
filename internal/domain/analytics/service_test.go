package analytics

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeAnalyticsRepo struct {
	summaries                map[string]SummaryResult
	topActivitiesRows        []ByActivityRow
	topActivitiesRecordsRead int64
	topActivitiesCalls       int
	lastTimeseries           TimeseriesFilter
	lastByActivity           ByActivityFilter
}

func (f *fakeAnalyticsRepo) Summary(ctx context.Context, scope Scope, filter SummaryFilter) (SummaryResult, error) {
	key := filter.From.Format(time.DateOnly) + "_" + filter.To.Format(time.DateOnly)
	if result, ok := f.summaries[key]; ok {
		return result, nil
	}
	return SummaryResult{}, nil
}

func (f *fakeAnalyticsRepo) Timeseries(ctx context.Context, scope Scope, filter TimeseriesFilter) ([]TimeseriesPoint, error) {
	f.lastTimeseries = filter
	return nil, nil
}

func (f *fakeAnalyticsRepo) ByActivity(ctx context.Context, scope Scope, filter ByActivityFilter) ([]ByActivityRow, error) {
	f.lastByActivity = filter
	return nil, nil
}

func (f *fakeAnalyticsRepo) TopActivities(ctx context.Context, scope Scope, filter TopActivitiesFilter) ([]ByActivityRow, int64, error) {
	f.topActivitiesCalls++
	rows := make([]ByActivityRow, len(f.topActivitiesRows))
	copy(rows, f.topActivitiesRows)
	return rows, f.topActivitiesRecordsRead, nil
}

func cachedConfig(ttl time.Duration) TopActivitiesConfig {
	return TopActivitiesConfig{
		Enabled:       true,
		LookbackDays:  30,
		MinRecords:    10,
		ResponseCount: 5,
		CacheTTL:      ttl,
	}
}

func TestSummaryAvgPerDay(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		summaries: map[string]SummaryResult{
			"2026-01-01_2026-01-03": {TotalCO2: 300, Count: 3},
		},
	}
	svc := NewService(repo)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)

	result, err := svc.Summary(context.Background(), UserScope(1), SummaryFilter{From: from, To: to})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.AvgPerDay != 100 {
		t.Fatalf("expected avg 100, got %v", result.AvgPerDay)
	}
}

func TestSummaryRejectsEmptyScopeAndInvertedRange(t *testing.T) {
	svc := NewService(&fakeAnalyticsRepo{})
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Summary(context.Background(), Scope{}, SummaryFilter{From: to, To: from}); !errors.Is(err, ErrEmptyScope) {
		t.Fatalf("expected ErrEmptyScope, got %v", err)
	}
	if _, err := svc.Summary(context.Background(), UserScope(1), SummaryFilter{From: from, To: to}); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestTimeseriesGroupBy(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	svc := NewService(repo)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Timeseries(context.Background(), UserScope(1), TimeseriesFilter{From: day, To: day}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.lastTimeseries.GroupBy != GroupByDay {
		t.Fatalf("expected default group_by day, got %q", repo.lastTimeseries.GroupBy)
	}

	_, err := svc.Timeseries(context.Background(), UserScope(1), TimeseriesFilter{From: day, To: day, GroupBy: "year"})
	if !errors.Is(err, ErrInvalidGroupBy) {
		t.Fatalf("expected ErrInvalidGroupBy, got %v", err)
	}
}

func TestByActivityDefaultLimit(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	svc := NewService(repo)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.ByActivity(context.Background(), UserScope(1), ByActivityFilter{From: day, To: day}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.lastByActivity.Limit != defaultByActivityLimit {
		t.Fatalf("expected limit %d, got %d", defaultByActivityLimit, repo.lastByActivity.Limit)
	}
}

func TestCompareDelta(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		summaries: map[string]SummaryResult{
			"2026-01-01_2026-01-31": {TotalCO2: 2800, Count: 75},
			"2025-12-01_2025-12-31": {TotalCO2: 3200, Count: 84},
		},
	}
	svc := NewService(repo)

	result, err := svc.Compare(context.Background(), Scope{UserIDs: []int64{1, 2}}, CompareFilter{
		FromA: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ToA:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		FromB: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		ToB:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Delta.Amount != -400 {
		t.Fatalf("expected delta -400, got %v", result.Delta.Amount)
	}
	if result.Delta.Percent != -12.5 {
		t.Fatalf("expected percent -12.5, got %v", result.Delta.Percent)
	}
	if result.PeriodB.From != "2025-12-01" {
		t.Fatalf("unexpected period b: %+v", result.PeriodB)
	}
}

func TestTopActivitiesUsesCacheWithinTTL(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		topActivitiesRows: []ByActivityRow{
			{ActivityTypeID: 1, ActivityName: "Electricity", Count: 2, Total: 25},
		},
		topActivitiesRecordsRead: 12,
	}

	svc := NewServiceWithTopActivitiesConfig(repo, cachedConfig(time.Minute))
	currentTime := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return currentTime }

	first, err := svc.TopActivities(context.Background(), UserScope(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.Status != TopActivitiesStatusOK {
		t.Fatalf("expected status OK, got %s", first.Status)
	}
	if len(first.Items) != 1 || first.Items[0].ActivityTypeID != 1 {
		t.Fatalf("unexpected rows: %+v", first.Items)
	}

	repo.topActivitiesRows = []ByActivityRow{
		{ActivityTypeID: 2, ActivityName: "Bus", Count: 7, Total: 70},
	}

	second, err := svc.TopActivities(context.Background(), UserScope(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.topActivitiesCalls != 1 {
		t.Fatalf("expected cache hit without extra repo call, got %d", repo.topActivitiesCalls)
	}
	if len(second.Items) != 1 || second.Items[0].ActivityTypeID != 1 {
		t.Fatalf("expected cached rows, got %+v", second.Items)
	}
}

func TestTopActivitiesCacheExpires(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		topActivitiesRows: []ByActivityRow{
			{ActivityTypeID: 1, ActivityName: "Electricity", Count: 2, Total: 25},
		},
		topActivitiesRecordsRead: 12,
	}

	svc := NewServiceWithTopActivitiesConfig(repo, cachedConfig(time.Minute))
	currentTime := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return currentTime }

	if _, err := svc.TopActivities(context.Background(), UserScope(1)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	currentTime = currentTime.Add(2 * time.Minute)
	repo.topActivitiesRows = []ByActivityRow{
		{ActivityTypeID: 2, ActivityName: "Bus", Count: 3, Total: 90},
	}

	rows, err := svc.TopActivities(context.Background(), UserScope(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.topActivitiesCalls != 2 {
		t.Fatalf("expected cache miss after TTL expiration, got %d repo calls", repo.topActivitiesCalls)
	}
	if len(rows.Items) != 1 || rows.Items[0].ActivityTypeID != 2 {
		t.Fatalf("expected fresh rows after cache expiration, got %+v", rows.Items)
	}
}

func TestTopActivitiesDisabled(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	cfg := cachedConfig(time.Minute)
	cfg.Enabled = false
	svc := NewServiceWithTopActivitiesConfig(repo, cfg)

	result, err := svc.TopActivities(context.Background(), UserScope(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Status != TopActivitiesStatusDisabled || len(result.Items) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if repo.topActivitiesCalls != 0 {
		t.Fatalf("expected no repo calls, got %d", repo.topActivitiesCalls)
	}
}

func TestTopActivitiesNeedMoreData(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		topActivitiesRows: []ByActivityRow{
			{ActivityTypeID: 1, ActivityName: "Electricity", Count: 2, Total: 25},
		},
		topActivitiesRecordsRead: 5,
	}
	svc := NewServiceWithTopActivitiesConfig(repo, cachedConfig(0))

	result, err := svc.TopActivities(context.Background(), UserScope(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Status != TopActivitiesStatusNeedMoreData {
		t.Fatalf("expected status need_more_data, got %s", result.Status)
	}
}

func TestTopActivitiesCacheIsPerScope(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		topActivitiesRows: []ByActivityRow{
			{ActivityTypeID: 1, ActivityName: "Electricity", Count: 2, Total: 25},
		},
		topActivitiesRecordsRead: 12,
	}
	svc := NewServiceWithTopActivitiesConfig(repo, cachedConfig(time.Minute))

	if _, err := svc.TopActivities(context.Background(), UserScope(1)); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := svc.TopActivities(context.Background(), Scope{UserIDs: []int64{2, 1}}); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if _, err := svc.TopActivities(context.Background(), Scope{UserIDs: []int64{1, 2}}); err != nil {
		t.Fatalf("third call failed: %v", err)
	}

	if repo.topActivitiesCalls != 2 {
		t.Fatalf("expected one cache entry per member set, got %d repo calls", repo.topActivitiesCalls)
	}
}
