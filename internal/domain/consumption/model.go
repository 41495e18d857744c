package consumption

import "time"

type ActivityRef struct {
	ID             int64
	Name           string
	EmissionFactor *float64
	ActivityTypeID *int64
}

type UnitRef struct {
	ID   int64
	Name string
}

// Row is a consumption record as the store returns it, with the joined
// activity and unit rows attached when they exist.
type Row struct {
	ID                  int64
	UserID              int64
	Amount              *float64
	ActivityTypeTableID int64
	UnitID              *int64
	CO2Equivalent       *float64
	Date                time.Time
	CreatedAt           time.Time
	DeletedAt           *time.Time
	Activity            *ActivityRef
	Unit                *UnitRef
}

// Consumption is the canonical read shape. CO2Equivalent is always the
// resolved value, see ResolveCO2.
type Consumption struct {
	ID                  int64
	UserID              int64
	Amount              float64
	ActivityTypeTableID int64
	UnitID              *int64
	CO2Equivalent       float64
	Date                time.Time
	CreatedAt           time.Time
	DeletedAt           *time.Time
	Activity            *ActivityRef
	Unit                *UnitRef
}

type PaginationMeta struct {
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type ListResult struct {
	Data []Consumption
	Meta PaginationMeta
}

// QueryParams is the full request-scoped parameter set of a consumption
// listing. Nil pointers mean "not supplied"; zero is a real bound.
type QueryParams struct {
	UserID       int64
	Page         int
	Limit        int
	SortBy       string
	SortOrder    string
	DateFrom     *time.Time
	DateTo       *time.Time
	AmountMin    *float64
	AmountMax    *float64
	CO2Min       *float64
	CO2Max       *float64
	ActivityType *int64
}

// Record is the insert payload handed to the store.
type Record struct {
	UserID              int64
	Amount              float64
	ActivityTypeTableID int64
	UnitID              *int64
	CO2Equivalent       float64
	Date                time.Time
}

// RowPatch lists the columns to update; nil fields are left untouched.
type RowPatch struct {
	Amount              *float64
	ActivityTypeTableID *int64
	UnitID              *int64
	CO2Equivalent       *float64
	Date                *time.Time
}

func (p RowPatch) IsEmpty() bool {
	return p.Amount == nil && p.ActivityTypeTableID == nil && p.UnitID == nil && p.CO2Equivalent == nil && p.Date == nil
}

type DeleteResult struct {
	Success bool
	ID      int64
}

type CreateInput struct {
	UserID              int64     `json:"user_id" validate:"required,gt=0"`
	Amount              float64   `json:"amount" validate:"gte=0"`
	ActivityTypeTableID int64     `json:"activity_type_table_id" validate:"required,gt=0"`
	UnitID              *int64    `json:"unit_id" validate:"omitempty,gt=0"`
	Date                time.Time `json:"date"`
	// CO2Equivalent is accepted for compatibility and ignored; the stored value
	// is always derived from the activity's emission factor.
	CO2Equivalent *float64 `json:"co2_equivalent"`
}

type PatchInput struct {
	Amount              *float64   `json:"amount" validate:"omitempty,gte=0"`
	ActivityTypeTableID *int64     `json:"activity_type_table_id" validate:"omitempty,gt=0"`
	UnitID              *int64     `json:"unit_id" validate:"omitempty,gt=0"`
	Date                *time.Time `json:"date"`
}
