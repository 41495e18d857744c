package consumption

import "strings"

type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

// ParseSortOrder accepts ASC or DESC in any case. Anything else yields the
// fallback.
func ParseSortOrder(raw string, fallback SortOrder) SortOrder {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ASC":
		return Ascending
	case "DESC":
		return Descending
	default:
		return fallback
	}
}

// SortKey is either a flat consumption column (Table empty) or a field of a
// joined catalog table. The store can only order by flat keys.
type SortKey struct {
	Table string
	Field string
}

func Flat(column string) SortKey {
	return SortKey{Field: column}
}

func Nested(table, field string) SortKey {
	return SortKey{Table: table, Field: field}
}

func (k SortKey) IsNested() bool {
	return k.Table != ""
}

func (k SortKey) String() string {
	if k.IsNested() {
		return k.Table + "." + k.Field
	}
	return k.Field
}

const sortKeySeparator = "."

var flatSortColumns = map[string]struct{}{
	"id":                     {},
	"user_id":                {},
	"amount":                 {},
	"activity_type_table_id": {},
	"unit_id":                {},
	"co2_equivalent":         {},
	"date":                   {},
	"created_at":             {},
}

var nestedSortFields = map[string]map[string]struct{}{
	TableActivity: {"id": {}, "name": {}, "emission_factor": {}, "activity_type_id": {}},
	TableUnit:     {"id": {}, "name": {}},
}

// ParseSortKey decides once whether raw names a flat column or a joined
// field. Unknown or malformed keys resolve to the fallback.
func ParseSortKey(raw string, fallback SortKey) SortKey {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	if !strings.Contains(raw, sortKeySeparator) {
		if _, ok := flatSortColumns[raw]; ok {
			return Flat(raw)
		}
		return fallback
	}

	parts := strings.Split(raw, sortKeySeparator)
	if len(parts) != 2 {
		return fallback
	}
	fields, ok := nestedSortFields[parts[0]]
	if !ok {
		return fallback
	}
	if _, ok := fields[parts[1]]; !ok {
		return fallback
	}
	return Nested(parts[0], parts[1])
}

// QueryDefaults are the values applied when a request leaves paging or
// sorting unset or unrecognized.
// MaxLimit caps the page size a caller can request.
type QueryDefaults struct {
	Page     int
	Limit    int
	MaxLimit int
	Sort     SortKey
	Order    SortOrder
}

func DefaultQueryDefaults() QueryDefaults {
	return QueryDefaults{
		Page:     1,
		Limit:    10,
		MaxLimit: 1000,
		Sort:     Flat("date"),
		Order:    Ascending,
	}
}

func (d QueryDefaults) normalized() QueryDefaults {
	std := DefaultQueryDefaults()
	if d.Page < 1 {
		d.Page = std.Page
	}
	if d.MaxLimit < 1 {
		d.MaxLimit = std.MaxLimit
	}
	if d.Limit < 1 {
		d.Limit = std.Limit
	}
	d.Limit = min(d.Limit, d.MaxLimit)
	if d.Sort.Field == "" || d.Sort.IsNested() {
		d.Sort = std.Sort
	}
	return d
}
