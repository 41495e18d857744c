package consumption

import (
	"errors"
	"math"
	"slices"
	"strings"
)

// ResolveCO2 returns amount × factor when both are known and falls back to the
// stored value otherwise. The stored column is only a cache of this product.
func ResolveCO2(stored, amount, factor *float64) float64 {
	if amount != nil && factor != nil {
		return *amount * *factor
	}
	if stored != nil {
		return *stored
	}
	return 0
}

// PostProcessOptions carries the parts of the request the store could not
// apply.
type PostProcessOptions struct {
	Sort                 SortKey
	Order                SortOrder
	RequiresInMemorySort bool
	CO2Min               *float64
	CO2Max               *float64
	Limit                int
}

// PostProcessStats describes what the in-memory pass did to a page.
type PostProcessStats struct {
	Fetched      int
	Dropped      int
	PostFiltered bool
}

// PostProcess finishes a fetched page: nested sort, CO2 resolution, shape
// projection, CO2 range filter and metadata reconciliation, in that order.
// The CO2 range is applied to this page only, so a reconciled total counts the
// survivors of the page rather than every matching row.
func PostProcess(rows []Row, opts PostProcessOptions, meta PaginationMeta) (ListResult, PostProcessStats, error) {
	stats := PostProcessStats{Fetched: len(rows)}

	if opts.RequiresInMemorySort && opts.Sort.IsNested() {
		rows = slices.Clone(rows)
		sortRowsByNested(rows, opts.Sort, opts.Order)
	}

	data := make([]Consumption, 0, len(rows))
	for _, row := range rows {
		item, err := toConsumption(row)
		if err != nil {
			return ListResult{}, stats, err
		}
		if !withinCO2Range(item.CO2Equivalent, opts.CO2Min, opts.CO2Max) {
			stats.Dropped++
			continue
		}
		data = append(data, item)
	}

	stats.PostFiltered = opts.CO2Min != nil || opts.CO2Max != nil
	limit := opts.Limit
	if limit < 1 {
		limit = meta.Limit
	}

	return ListResult{
		Data: data,
		Meta: Reconcile(meta, stats.PostFiltered, len(data), limit),
	}, stats, nil
}

func withinCO2Range(value float64, lo, hi *float64) bool {
	if lo != nil && value < *lo {
		return false
	}
	if hi != nil && value > *hi {
		return false
	}
	return true
}

func toConsumption(row Row) (Consumption, error) {
	if err := checkRow(row); err != nil {
		return Consumption{}, &TransformError{RowID: row.ID, Err: err}
	}

	var factor *float64
	if row.Activity != nil {
		factor = row.Activity.EmissionFactor
	}

	item := Consumption{
		ID:                  row.ID,
		UserID:              row.UserID,
		ActivityTypeTableID: row.ActivityTypeTableID,
		UnitID:              row.UnitID,
		CO2Equivalent:       ResolveCO2(row.CO2Equivalent, row.Amount, factor),
		Date:                row.Date,
		CreatedAt:           row.CreatedAt,
		DeletedAt:           row.DeletedAt,
	}
	if row.Amount != nil {
		item.Amount = *row.Amount
	}
	if row.Activity != nil {
		activity := *row.Activity
		item.Activity = &activity
	}
	if row.Unit != nil {
		unit := *row.Unit
		item.Unit = &unit
	}
	return item, nil
}

func checkRow(row Row) error {
	switch {
	case row.ID <= 0:
		return errors.New("missing id")
	case row.UserID <= 0:
		return errors.New("missing user_id")
	case row.Amount != nil && !isNonNegative(*row.Amount):
		return errors.New("amount must be a non-negative number")
	case row.CO2Equivalent != nil && math.IsNaN(*row.CO2Equivalent):
		return errors.New("co2_equivalent is not a number")
	}

	if row.Activity != nil {
		if row.Activity.ID != row.ActivityTypeTableID {
			return errors.New("joined activity does not match activity_type_table_id")
		}
		if f := row.Activity.EmissionFactor; f != nil && !isNonNegative(*f) {
			return errors.New("emission_factor must be a non-negative number")
		}
	}
	if row.Unit != nil && row.UnitID != nil && row.Unit.ID != *row.UnitID {
		return errors.New("joined unit does not match unit_id")
	}
	return nil
}

func isNonNegative(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0
}

// sortRowsByNested orders rows by a joined field with a stable sort. Rows
// without the field sort before every row that has it when ascending.
func sortRowsByNested(rows []Row, key SortKey, order SortOrder) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		c := compareNested(nestedValue(a, key), nestedValue(b, key))
		if order == Descending {
			return -c
		}
		return c
	})
}

type nestedSortValue struct {
	present bool
	numeric bool
	number  float64
	text    string
}

func numberValue(v float64) nestedSortValue {
	return nestedSortValue{present: true, numeric: true, number: v}
}

func textValue(v string) nestedSortValue {
	return nestedSortValue{present: true, text: v}
}

func nestedValue(row Row, key SortKey) nestedSortValue {
	switch key.Table {
	case TableActivity:
		if row.Activity == nil {
			return nestedSortValue{}
		}
		switch key.Field {
		case "id":
			return numberValue(float64(row.Activity.ID))
		case "name":
			return textValue(row.Activity.Name)
		case "emission_factor":
			if row.Activity.EmissionFactor != nil {
				return numberValue(*row.Activity.EmissionFactor)
			}
		case "activity_type_id":
			if row.Activity.ActivityTypeID != nil {
				return numberValue(float64(*row.Activity.ActivityTypeID))
			}
		}
	case TableUnit:
		if row.Unit == nil {
			return nestedSortValue{}
		}
		switch key.Field {
		case "id":
			return numberValue(float64(row.Unit.ID))
		case "name":
			return textValue(row.Unit.Name)
		}
	}
	return nestedSortValue{}
}

func compareNested(a, b nestedSortValue) int {
	switch {
	case !a.present && !b.present:
		return 0
	case !a.present:
		return -1
	case !b.present:
		return 1
	}

	if a.numeric && b.numeric {
		switch {
		case a.number < b.number:
			return -1
		case a.number > b.number:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.text, b.text)
}
