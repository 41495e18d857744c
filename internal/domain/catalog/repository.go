package catalog

import "context"

type Repository interface {
	ListActivityTypes(ctx context.Context) ([]ActivityType, error)
	GetActivityType(ctx context.Context, id int64) (*ActivityType, error)
	ListUnits(ctx context.Context) ([]Unit, error)
	GetUnit(ctx context.Context, id int64) (*Unit, error)
	UpsertUnit(ctx context.Context, unit *Unit) error
	UpsertActivityType(ctx context.Context, activityType *ActivityType) error
}
