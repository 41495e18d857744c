package consumption

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	consumptiondomain "carbon-tracker-go/internal/domain/consumption"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type activityRecord struct {
	ID             int64 `gorm:"primaryKey"`
	Name           string
	EmissionFactor *float64
	ActivityTypeID *int64
}

func (activityRecord) TableName() string {
	return consumptiondomain.TableActivity
}

type unitRecord struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func (unitRecord) TableName() string {
	return consumptiondomain.TableUnit
}

type consumptionRecord struct {
	ID                  int64 `gorm:"primaryKey"`
	UserID              int64
	Amount              *float64
	ActivityTypeTableID int64
	UnitID              *int64
	CO2Equivalent       *float64  `gorm:"column:co2_equivalent"`
	Date                time.Time `gorm:"type:date"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	DeletedAt           *time.Time

	Activity *activityRecord `gorm:"foreignKey:ActivityTypeTableID;references:ID"`
	Unit     *unitRecord     `gorm:"foreignKey:UnitID;references:ID"`
}

func (consumptionRecord) TableName() string {
	return consumptiondomain.TableConsumption
}

// predicateColumns fixes both the column and the order in which predicates are
// rendered into SQL.
type predicateColumn struct {
	predicate consumptiondomain.Predicate
	condition string
}

var predicateColumns = []predicateColumn{
	{consumptiondomain.PredicateUserID, "user_id = ?"},
	{consumptiondomain.PredicateActivityType, "activity_type_table_id = ?"},
	{consumptiondomain.PredicateGteDate, "date >= ?"},
	{consumptiondomain.PredicateLteDate, "date <= ?"},
	{consumptiondomain.PredicateGteAmount, "amount >= ?"},
	{consumptiondomain.PredicateLteAmount, "amount <= ?"},
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) QueryPage(ctx context.Context, query consumptiondomain.Query) ([]consumptiondomain.Row, consumptiondomain.PaginationMeta, error) {
	if err := checkFilters(query.Filters); err != nil {
		return nil, consumptiondomain.PaginationMeta{}, err
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&consumptionRecord{}).
		Scopes(filterScope(query.Filters)).
		Count(&total).Error; err != nil {
		return nil, consumptiondomain.PaginationMeta{}, err
	}

	stmt := r.db.WithContext(ctx).
		Model(&consumptionRecord{}).
		Scopes(filterScope(query.Filters), joinScope(query.Joins))
	if len(query.Select) > 0 {
		stmt = stmt.Select(query.Select)
	}

	var records []consumptionRecord
	if err := stmt.
		Order(clause.OrderByColumn{Column: clause.Column{Name: query.OrderBy}, Desc: !query.Ascending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: !query.Ascending}).
		Offset(query.Offset()).
		Limit(query.Limit).
		Find(&records).Error; err != nil {
		return nil, consumptiondomain.PaginationMeta{}, err
	}

	rows := make([]consumptiondomain.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, toRow(record))
	}
	return rows, consumptiondomain.NewPaginationMeta(total, query.Page, query.Limit), nil
}

func (r *PostgresRepository) GetRow(ctx context.Context, id int64) (*consumptiondomain.Row, error) {
	var record consumptionRecord
	err := r.db.WithContext(ctx).
		Preload("Activity").
		Preload("Unit").
		Where("id = ?", id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, consumptiondomain.ErrConsumptionNotFound
	}
	if err != nil {
		return nil, err
	}

	row := toRow(record)
	return &row, nil
}

func (r *PostgresRepository) InsertRow(ctx context.Context, input *consumptiondomain.Record) (*consumptiondomain.Row, error) {
	record := consumptionRecord{
		UserID:              input.UserID,
		Amount:              &input.Amount,
		ActivityTypeTableID: input.ActivityTypeTableID,
		UnitID:              input.UnitID,
		CO2Equivalent:       &input.CO2Equivalent,
		Date:                input.Date,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetRow(ctx, record.ID)
}

func (r *PostgresRepository) UpdateRow(ctx context.Context, id int64, patch consumptiondomain.RowPatch) (*consumptiondomain.Row, error) {
	updates := make(map[string]any, 5)
	if patch.Amount != nil {
		updates["amount"] = *patch.Amount
	}
	if patch.ActivityTypeTableID != nil {
		updates["activity_type_table_id"] = *patch.ActivityTypeTableID
	}
	if patch.UnitID != nil {
		updates["unit_id"] = *patch.UnitID
	}
	if patch.CO2Equivalent != nil {
		updates["co2_equivalent"] = *patch.CO2Equivalent
	}
	if patch.Date != nil {
		updates["date"] = *patch.Date
	}
	if len(updates) == 0 {
		return nil, consumptiondomain.ErrEmptyPatch
	}

	result := r.db.WithContext(ctx).
		Model(&consumptionRecord{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, consumptiondomain.ErrConsumptionNotFound
	}
	return r.GetRow(ctx, id)
}

func (r *PostgresRepository) DeleteRow(ctx context.Context, id int64) (consumptiondomain.DeleteResult, error) {
	result := r.db.WithContext(ctx).Delete(&consumptionRecord{}, "id = ?", id)
	if result.Error != nil {
		return consumptiondomain.DeleteResult{}, result.Error
	}
	return consumptiondomain.DeleteResult{Success: result.RowsAffected > 0, ID: id}, nil
}

func checkFilters(filters consumptiondomain.Filters) error {
	for predicate := range filters {
		known := slices.ContainsFunc(predicateColumns, func(item predicateColumn) bool {
			return item.predicate == predicate
		})
		if !known {
			return fmt.Errorf("unsupported predicate %q", predicate)
		}
	}
	return nil
}

func filterScope(filters consumptiondomain.Filters) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, item := range predicateColumns {
			if value, ok := filters[item.predicate]; ok {
				db = db.Where(item.condition, value)
			}
		}
		return db
	}
}

func joinScope(tables []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if slices.Contains(tables, consumptiondomain.TableActivity) {
			db = db.Preload("Activity")
		}
		if slices.Contains(tables, consumptiondomain.TableUnit) {
			db = db.Preload("Unit")
		}
		return db
	}
}

func toRow(record consumptionRecord) consumptiondomain.Row {
	row := consumptiondomain.Row{
		ID:                  record.ID,
		UserID:              record.UserID,
		Amount:              record.Amount,
		ActivityTypeTableID: record.ActivityTypeTableID,
		UnitID:              record.UnitID,
		CO2Equivalent:       record.CO2Equivalent,
		Date:                record.Date,
		CreatedAt:           record.CreatedAt,
		DeletedAt:           record.DeletedAt,
	}
	if record.Activity != nil {
		row.Activity = &consumptiondomain.ActivityRef{
			ID:             record.Activity.ID,
			Name:           record.Activity.Name,
			EmissionFactor: record.Activity.EmissionFactor,
			ActivityTypeID: record.Activity.ActivityTypeID,
		}
	}
	if record.Unit != nil {
		row.Unit = &consumptiondomain.UnitRef{ID: record.Unit.ID, Name: record.Unit.Name}
	}
	return row
}
