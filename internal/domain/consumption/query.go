package consumption

import "math"

const (
	TableConsumption = "consumption_table"
	TableActivity    = "activity_table"
	TableUnit        = "unit_table"
)

var consumptionColumns = []string{
	"id",
	"user_id",
	"amount",
	"activity_type_table_id",
	"unit_id",
	"co2_equivalent",
	"date",
	"created_at",
	"deleted_at",
}

// Query is the store request for one page of consumption rows.
type Query struct {
	Table     string
	Select    []string
	Joins     []string
	Filters   Filters
	Page      int
	Limit     int
	OrderBy   string
	Ascending bool
}

// Offset saturates at math.MaxInt instead of overflowing, so an absurd page
// reads past the end of the result set.
func (q Query) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Plan is a translated listing request: the store query plus what the
// post-processor has to finish in memory.
type Plan struct {
	Query                Query
	Sort                 SortKey
	Order                SortOrder
	RequiresInMemorySort bool
}

// Translate maps filters, paging and sorting onto a store query. A joined
// sort key cannot be ordered by the store, so the store orders by the
// default column and the requested key is kept for the in-memory pass.
func Translate(filters Filters, page, limit int, sortBy, sortOrder string, defaults QueryDefaults) Plan {
	defaults = defaults.normalized()
	if page < 1 {
		page = defaults.Page
	}
	if limit < 1 {
		limit = defaults.Limit
	}
	limit = min(limit, defaults.MaxLimit)

	key := ParseSortKey(sortBy, defaults.Sort)
	order := ParseSortOrder(sortOrder, defaults.Order)

	orderBy := key.Field
	if key.IsNested() {
		orderBy = defaults.Sort.Field
	}

	return Plan{
		Query: Query{
			Table:     TableConsumption,
			Select:    append([]string(nil), consumptionColumns...),
			Joins:     []string{TableActivity, TableUnit},
			Filters:   filters,
			Page:      page,
			Limit:     limit,
			OrderBy:   orderBy,
			Ascending: order == Ascending,
		},
		Sort:                 key,
		Order:                order,
		RequiresInMemorySort: key.IsNested(),
	}
}
