package consumption

// Predicate names one store-side filter. CO2 bounds have no predicate: the
// value is derived per row and is filtered after the fetch.
type Predicate string

const (
	PredicateUserID       Predicate = "user_id"
	PredicateGteDate      Predicate = "gte_date"
	PredicateLteDate      Predicate = "lte_date"
	PredicateActivityType Predicate = "activity_type_table_id"
	PredicateGteAmount    Predicate = "gte_amount"
	PredicateLteAmount    Predicate = "lte_amount"
)

// Filters maps each predicate to its operand: int64 for ids, time.Time for
// dates and float64 for amounts.
type Filters map[Predicate]any

// NormalizeFilters builds the canonical store filter set. Only a missing or
// non-positive user id is an error.
func NormalizeFilters(params QueryParams) (Filters, error) {
	if params.UserID <= 0 {
		return nil, newValidationError("user_id", "is required and must be a positive integer")
	}

	filters := Filters{PredicateUserID: params.UserID}
	if params.DateFrom != nil {
		filters[PredicateGteDate] = *params.DateFrom
	}
	if params.DateTo != nil {
		filters[PredicateLteDate] = *params.DateTo
	}
	if params.ActivityType != nil {
		filters[PredicateActivityType] = *params.ActivityType
	}
	if params.AmountMin != nil {
		filters[PredicateGteAmount] = *params.AmountMin
	}
	if params.AmountMax != nil {
		filters[PredicateLteAmount] = *params.AmountMax
	}

	return filters, nil
}
