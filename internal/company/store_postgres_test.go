package company

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var companyCols = []string{"id", "owner_id", "name", "sector", "address", "latitude", "longitude", "validation_status"}

func ptrFloat64(v float64) *float64 { return &v }

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresStore(mock), mock
}

func expectResources(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery(`FROM company_outputs o`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "name", "category", "family", "unit", "is_waste"}).
			AddRow(int64(100), int64(1), "PET flakes", "plastique", "Plastic", "kg", true).
			AddRow(int64(101), int64(1), "Pallets", "wood", "", "unit", false).
			AddRow(int64(300), int64(3), "Offcuts", "", "", "", true))
	mock.ExpectQuery(`FROM company_inputs i`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "name", "category", "family", "unit"}).
			AddRow(int64(200), int64(3), "Resin", "", "Plastic", "kg"))
	mock.ExpectQuery(`FROM company_types ct`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"company_id", "name"}).
			AddRow(int64(1), "Plasturgie").
			AddRow(int64(3), "Logistique"))
}

func TestPostgresStore_GetByOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE owner_id=\$1`).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows(companyCols).
			AddRow(int64(1), int64(10), "Recyplast", "Recycling", "Zone des Paluds", ptrFloat64(43.29), ptrFloat64(5.56), "validated"))
	expectResources(mock)

	c, err := s.GetByOwner(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Recyplast", c.Name)
	assert.InDelta(t, 43.29, *c.Latitude, 1e-9)
	require.Len(t, c.Outputs, 2)
	assert.Equal(t, "Plastic", c.Outputs[0].Family)
	assert.True(t, c.Outputs[0].IsWaste)
	assert.Empty(t, c.Inputs)
	assert.Equal(t, []string{"Plasturgie"}, c.Types)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByOwner_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM companies WHERE owner_id=\$1`).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	c, err := s.GetByOwner(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Error(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM companies WHERE id=\$1`).
		WithArgs(int64(5)).
		WillReturnError(errors.New("connection refused"))

	_, err := s.Get(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company: get 5")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEligible(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE id <> \$1 AND validation_status = ANY\(\$2\)`).
		WithArgs(int64(2), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(companyCols).
			AddRow(int64(1), int64(10), "Recyplast", "Recycling", "", ptrFloat64(43.29), ptrFloat64(5.56), "validated").
			AddRow(int64(3), int64(30), "Moulding Co", "", "", (*float64)(nil), (*float64)(nil), "active"))
	expectResources(mock)

	got, err := s.ListEligible(context.Background(), 2, DefaultEligibleStatuses)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Outputs, 2)
	assert.Len(t, got[1].Outputs, 1)
	require.Len(t, got[1].Inputs, 1)
	assert.Equal(t, "Resin", got[1].Inputs[0].Name)
	assert.Nil(t, got[1].Latitude)
	assert.Equal(t, []string{"Logistique"}, got[1].Types)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEligible_NoStatusFilter(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE id <> \$1\s+ORDER BY id`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(companyCols))

	got, err := s.ListEligible(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEligible_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM companies`).
		WithArgs(int64(2), pgxmock.AnyArg()).
		WillReturnError(errors.New("timeout"))

	_, err := s.ListEligible(context.Background(), 2, DefaultEligibleStatuses)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company: list eligible")
}
