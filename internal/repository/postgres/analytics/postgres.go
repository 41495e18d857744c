package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	analyticsdomain "carbon-tracker-go/internal/domain/analytics"
	"gorm.io/gorm"
)

// co2Expr mirrors the read path of the consumption pipeline: the live factor
// wins over the stored value.
const co2Expr = "COALESCE(c.amount * a.emission_factor, c.co2_equivalent, 0)"

const consumptionFrom = "consumption_table c LEFT JOIN activity_table a ON a.id = c.activity_type_table_id"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Summary(ctx context.Context, scope analyticsdomain.Scope, filter analyticsdomain.SummaryFilter) (analyticsdomain.SummaryResult, error) {
	where, args := buildConsumptionWhere(scope, filter.From, filter.To, filter.ActivityTypeIDs)
	query := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) AS total_co2, COUNT(*) AS count FROM %s WHERE %s", co2Expr, consumptionFrom, where)

	var row struct {
		TotalCO2 float64 `gorm:"column:total_co2"`
		Count    int64   `gorm:"column:count"`
	}

	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return analyticsdomain.SummaryResult{}, err
	}

	return analyticsdomain.SummaryResult{TotalCO2: row.TotalCO2, Count: row.Count}, nil
}

func (r *PostgresRepository) Timeseries(ctx context.Context, scope analyticsdomain.Scope, filter analyticsdomain.TimeseriesFilter) ([]analyticsdomain.TimeseriesPoint, error) {
	where, args := buildConsumptionWhere(scope, filter.From, filter.To, filter.ActivityTypeIDs)

	groupBy := strings.ToLower(strings.TrimSpace(filter.GroupBy))
	switch groupBy {
	case analyticsdomain.GroupByDay, analyticsdomain.GroupByWeek, analyticsdomain.GroupByMonth:
	default:
		return nil, analyticsdomain.ErrInvalidGroupBy
	}

	// c.date is a calendar DATE; no timezone conversion so buckets keep their day.
	periodExpr := fmt.Sprintf("date_trunc('%s', c.date::timestamp)", groupBy)
	selectExpr := fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", periodExpr)
	query := fmt.Sprintf("SELECT %s AS period, COALESCE(SUM(%s), 0) AS total, COUNT(*) AS count FROM %s WHERE %s GROUP BY 1 ORDER BY 1", selectExpr, co2Expr, consumptionFrom, where)

	var rows []analyticsdomain.TimeseriesPoint
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *PostgresRepository) ByActivity(ctx context.Context, scope analyticsdomain.Scope, filter analyticsdomain.ByActivityFilter) ([]analyticsdomain.ByActivityRow, error) {
	where, args := buildConsumptionWhere(scope, filter.From, filter.To, filter.ActivityTypeIDs)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf("SELECT c.activity_type_table_id AS activity_type_id, COALESCE(a.name, '') AS activity_name, COALESCE(SUM(%s), 0) AS total, COUNT(c.id) AS count FROM %s WHERE %s GROUP BY c.activity_type_table_id, a.name ORDER BY total DESC LIMIT ?", co2Expr, consumptionFrom, where)
	args = append(args, limit)

	var rows []analyticsdomain.ByActivityRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *PostgresRepository) TopActivities(ctx context.Context, scope analyticsdomain.Scope, filter analyticsdomain.TopActivitiesFilter) ([]analyticsdomain.ByActivityRow, int64, error) {
	responseCount := filter.ResponseCount
	if responseCount <= 0 {
		responseCount = 5
	}

	where, args := buildConsumptionWhere(scope, filter.From, filter.To, nil)

	var countRow struct {
		RecordsRead int64 `gorm:"column:records_read"`
	}
	countQuery := "SELECT COUNT(*) AS records_read FROM consumption_table c WHERE " + where
	if err := r.db.WithContext(ctx).Raw(countQuery, args...).Scan(&countRow).Error; err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT c.activity_type_table_id AS activity_type_id, COALESCE(a.name, '') AS activity_name, COALESCE(SUM(%s), 0) AS total, COUNT(c.id) AS count FROM %s WHERE %s GROUP BY c.activity_type_table_id, a.name ORDER BY total DESC, count DESC LIMIT ?", co2Expr, consumptionFrom, where)

	var rows []analyticsdomain.ByActivityRow
	if err := r.db.WithContext(ctx).Raw(query, append(args, responseCount)...).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, countRow.RecordsRead, nil
}

func buildConsumptionWhere(scope analyticsdomain.Scope, from, to time.Time, activityTypeIDs []int64) (string, []interface{}) {
	conditions := []string{"c.user_id IN (?)", "c.date >= ?", "c.date <= ?"}
	args := []interface{}{scope.UserIDs, from, to}

	if len(activityTypeIDs) > 0 {
		conditions = append(conditions, "c.activity_type_table_id IN (?)")
		args = append(args, activityTypeIDs)
	}

	return strings.Join(conditions, " AND "), args
}
