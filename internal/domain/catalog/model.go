package catalog

// ActivityType is a catalog entry: a measurable activity and the kg CO2e it
// produces per unit.
type ActivityType struct {
	ID             int64   `gorm:"primaryKey"`
	Name           string  `gorm:"not null;uniqueIndex"`
	EmissionFactor float64 `gorm:"type:numeric(14,6);not null"`
	ActivityTypeID *int64
	UnitID         *int64
	Description    *string `gorm:"type:text"`
}

func (ActivityType) TableName() string {
	return "activity_table"
}

type Unit struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"not null;uniqueIndex"`
}

func (Unit) TableName() string {
	return "unit_table"
}
