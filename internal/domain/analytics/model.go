package analytics

import "time"

const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"
)

// Scope selects whose consumption is aggregated: one user, or every member of
// a company.
type Scope struct {
	UserIDs []int64
}

func UserScope(userID int64) Scope {
	return Scope{UserIDs: []int64{userID}}
}

type SummaryFilter struct {
	From            time.Time
	To              time.Time
	ActivityTypeIDs []int64
}

type SummaryResult struct {
	TotalCO2  float64 `json:"total_co2"`
	Count     int64   `json:"count"`
	AvgPerDay float64 `json:"avg_per_day"`
}

type TimeseriesFilter struct {
	From            time.Time
	To              time.Time
	GroupBy         string
	ActivityTypeIDs []int64
}

type TimeseriesPoint struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
	Count  int64   `json:"count"`
}

type ByActivityFilter struct {
	From            time.Time
	To              time.Time
	ActivityTypeIDs []int64
	Limit           int
}

type ByActivityRow struct {
	ActivityTypeID int64   `json:"activity_type_id"`
	ActivityName   string  `json:"activity_name"`
	Total          float64 `json:"total"`
	Count          int64   `json:"count"`
}

type CompareFilter struct {
	FromA           time.Time
	ToA             time.Time
	FromB           time.Time
	ToB             time.Time
	ActivityTypeIDs []int64
}

type PeriodSummary struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

type CompareResult struct {
	PeriodA PeriodSummary `json:"period_a"`
	PeriodB PeriodSummary `json:"period_b"`
	Delta   DeltaResult   `json:"delta"`
}

type DeltaResult struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

const (
	TopActivitiesStatusOK           = "ok"
	TopActivitiesStatusNeedMoreData = "need_more_data"
	TopActivitiesStatusDisabled     = "disabled"
)

// TopActivitiesConfig tunes the "biggest emitters" widget: how far back it
// looks, how many records are needed before it shows anything and how long a
// result is cached per scope.
type TopActivitiesConfig struct {
	Enabled       bool
	LookbackDays  int
	MinRecords    int
	ResponseCount int
	CacheTTL      time.Duration
}

type TopActivitiesFilter struct {
	From          time.Time
	To            time.Time
	ResponseCount int
}

type TopActivitiesResult struct {
	Status string          `json:"status"`
	Items  []ByActivityRow `json:"items"`
}
