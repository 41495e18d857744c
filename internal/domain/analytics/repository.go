package analytics

import "context"

// Repository aggregates consumption rows. CO2 per row is amount times the
// activity's emission factor, falling back to the stored co2_equivalent.
type Repository interface {
	Summary(ctx context.Context, scope Scope, filter SummaryFilter) (SummaryResult, error)
	Timeseries(ctx context.Context, scope Scope, filter TimeseriesFilter) ([]TimeseriesPoint, error)
	ByActivity(ctx context.Context, scope Scope, filter ByActivityFilter) ([]ByActivityRow, error)
	TopActivities(ctx context.Context, scope Scope, filter TopActivitiesFilter) ([]ByActivityRow, int64, error)
}
