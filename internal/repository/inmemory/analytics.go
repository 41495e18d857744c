package inmemory

import (
	"cmp"
	"context"
	"slices"
	"time"

	analyticsdomain "carbon-tracker-go/internal/domain/analytics"
	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
)

// AnalyticsStore aggregates over a ConsumptionStore using the same CO2
// precedence as the SQL implementation.
type AnalyticsStore struct {
	consumption *ConsumptionStore
}

func NewAnalyticsStore(consumption *ConsumptionStore) *AnalyticsStore {
	return &AnalyticsStore{consumption: consumption}
}

type scopedRow struct {
	activityID   int64
	activityName string
	date         time.Time
	co2          float64
}

func (s *AnalyticsStore) Summary(_ context.Context, scope analyticsdomain.Scope, filter analyticsdomain.SummaryFilter) (analyticsdomain.SummaryResult, error) {
	var result analyticsdomain.SummaryResult
	for _, row := range s.scoped(scope, filter.From, filter.To, filter.ActivityTypeIDs) {
		result.TotalCO2 += row.co2
		result.Count++
	}
	return result, nil
}

func (s *AnalyticsStore) Timeseries(_ context.Context, scope analyticsdomain.Scope, filter analyticsdomain.TimeseriesFilter) ([]analyticsdomain.TimeseriesPoint, error) {
	buckets := make(map[string]*analyticsdomain.TimeseriesPoint)
	for _, row := range s.scoped(scope, filter.From, filter.To, filter.ActivityTypeIDs) {
		period, err := bucket(row.date, filter.GroupBy)
		if err != nil {
			return nil, err
		}
		point, ok := buckets[period]
		if !ok {
			point = &analyticsdomain.TimeseriesPoint{Period: period}
			buckets[period] = point
		}
		point.Total += row.co2
		point.Count++
	}

	points := make([]analyticsdomain.TimeseriesPoint, 0, len(buckets))
	for _, point := range buckets {
		points = append(points, *point)
	}
	slices.SortFunc(points, func(a, b analyticsdomain.TimeseriesPoint) int {
		return cmp.Compare(a.Period, b.Period)
	})
	return points, nil
}

func (s *AnalyticsStore) ByActivity(_ context.Context, scope analyticsdomain.Scope, filter analyticsdomain.ByActivityFilter) ([]analyticsdomain.ByActivityRow, error) {
	rows := groupByActivity(s.scoped(scope, filter.From, filter.To, filter.ActivityTypeIDs))
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

func (s *AnalyticsStore) TopActivities(_ context.Context, scope analyticsdomain.Scope, filter analyticsdomain.TopActivitiesFilter) ([]analyticsdomain.ByActivityRow, int64, error) {
	scoped := s.scoped(scope, filter.From, filter.To, nil)
	rows := groupByActivity(scoped)
	if filter.ResponseCount > 0 && len(rows) > filter.ResponseCount {
		rows = rows[:filter.ResponseCount]
	}
	return rows, int64(len(scoped)), nil
}

func (s *AnalyticsStore) scoped(scope analyticsdomain.Scope, from, to time.Time, activityTypeIDs []int64) []scopedRow {
	result := make([]scopedRow, 0)
	for _, row := range s.consumption.Rows() {
		if !slices.Contains(scope.UserIDs, row.UserID) {
			continue
		}
		if row.Date.Before(from) || row.Date.After(to) {
			continue
		}
		if len(activityTypeIDs) > 0 && !slices.Contains(activityTypeIDs, row.ActivityTypeTableID) {
			continue
		}

		joined := s.consumption.join(row, []string{consumptiondomain.TableActivity})
		item := scopedRow{activityID: row.ActivityTypeTableID, date: row.Date}
		var factor *float64
		if joined.Activity != nil {
			item.activityName = joined.Activity.Name
			factor = joined.Activity.EmissionFactor
		}
		item.co2 = consumptiondomain.ResolveCO2(row.CO2Equivalent, row.Amount, factor)
		result = append(result, item)
	}
	return result
}

func groupByActivity(rows []scopedRow) []analyticsdomain.ByActivityRow {
	grouped := make(map[int64]*analyticsdomain.ByActivityRow)
	for _, row := range rows {
		item, ok := grouped[row.activityID]
		if !ok {
			item = &analyticsdomain.ByActivityRow{ActivityTypeID: row.activityID, ActivityName: row.activityName}
			grouped[row.activityID] = item
		}
		item.Total += row.co2
		item.Count++
	}

	result := make([]analyticsdomain.ByActivityRow, 0, len(grouped))
	for _, item := range grouped {
		result = append(result, *item)
	}
	slices.SortFunc(result, func(a, b analyticsdomain.ByActivityRow) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.ActivityTypeID, b.ActivityTypeID)
	})
	return result
}

func bucket(date time.Time, groupBy string) (string, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	switch groupBy {
	case analyticsdomain.GroupByDay, "":
	case analyticsdomain.GroupByWeek:
		// ISO weeks start on Monday, as date_trunc('week') does.
		offset := (int(day.Weekday()) + 6) % 7
		day = day.AddDate(0, 0, -offset)
	case analyticsdomain.GroupByMonth:
		day = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return "", analyticsdomain.ErrInvalidGroupBy
	}
	return day.Format(time.DateOnly), nil
}
