package catalog

import (
	"context"
	"testing"

	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	"carbon-tracker-go/internal/repository/postgres/postgrestest"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActivityTypesOrderedByName(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectQuery(`SELECT \* FROM "activity_table" ORDER BY name asc`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "emission_factor", "activity_type_id", "unit_id", "description"}).
			AddRow(2, "Bus", 0.105, nil, 1, nil).
			AddRow(1, "Electricity", 0.233, nil, 2, "grid"))

	items, err := repo.ListActivityTypes(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Bus", items[0].Name)
	require.NotNil(t, items[1].Description)
	assert.Equal(t, "grid", *items[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActivityTypeNotFound(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectQuery(`SELECT \* FROM "activity_table" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetActivityType(context.Background(), 5)
	assert.ErrorIs(t, err, catalogdomain.ErrActivityTypeNotFound)
}

func TestGetUnitNotFound(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectQuery(`SELECT \* FROM "unit_table" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetUnit(context.Background(), 5)
	assert.ErrorIs(t, err, catalogdomain.ErrUnitNotFound)
}

func TestUpsertUnitReturnsID(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectQuery(`INSERT INTO "unit_table" .+ ON CONFLICT \("name"\) DO UPDATE SET "name"="excluded"."name"`).
		WithArgs("kWh").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	unit := catalogdomain.Unit{Name: "kWh"}
	require.NoError(t, repo.UpsertUnit(context.Background(), &unit))
	assert.Equal(t, int64(4), unit.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
