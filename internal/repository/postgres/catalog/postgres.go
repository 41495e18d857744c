package catalog

import (
	"context"
	"errors"

	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListActivityTypes(ctx context.Context) ([]catalogdomain.ActivityType, error) {
	var items []catalogdomain.ActivityType
	if err := r.db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetActivityType(ctx context.Context, id int64) (*catalogdomain.ActivityType, error) {
	var item catalogdomain.ActivityType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrActivityTypeNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) ListUnits(ctx context.Context) ([]catalogdomain.Unit, error) {
	var items []catalogdomain.Unit
	if err := r.db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetUnit(ctx context.Context, id int64) (*catalogdomain.Unit, error) {
	var item catalogdomain.Unit
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogdomain.ErrUnitNotFound
		}
		return nil, err
	}
	return &item, nil
}

// UpsertUnit inserts by name; gorm fills unit.ID from the RETURNING clause.
func (r *PostgresRepository) UpsertUnit(ctx context.Context, unit *catalogdomain.Unit) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(unit).Error
}

func (r *PostgresRepository) UpsertActivityType(ctx context.Context, activityType *catalogdomain.ActivityType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"emission_factor", "unit_id", "description"}),
		}).
		Create(activityType).Error
}
