package company

import (
	"context"
	"testing"

	companydomain "carbon-tracker-go/internal/domain/company"
	"carbon-tracker-go/internal/repository/postgres/postgrestest"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCompanyByUserJoinsMembers(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectQuery(`SELECT companies\.\* FROM "companies" join company_members on company_members.company_id = companies.id WHERE company_members.user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "owner_id"}).AddRow(9, "Acme", "ABC234", 3))

	company, err := repo.GetCompanyByUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(9), company.ID)
	assert.Equal(t, "ABC234", company.Code)
}

func TestGetCompanyByUserNotFound(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectQuery(`FROM "companies"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetCompanyByUser(context.Background(), 3)
	assert.ErrorIs(t, err, companydomain.ErrCompanyNotFound)
}

func TestIsCodeTaken(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "companies" WHERE code = \$1`).
		WithArgs("ZZZ999").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.IsCodeTaken(context.Background(), "ZZZ999")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestTransactionCommits(t *testing.T) {
	db, mock := postgrestest.New(t)
	repo := NewPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "company_members" WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	err := repo.Transaction(context.Background(), func(tx companydomain.Repository) error {
		inCompany, err := tx.IsUserInCompany(context.Background(), 4)
		assert.False(t, inCompany)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
