package database

import (
	"context"
	"regexp"
	"testing"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/internal/setmenu"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedMenuSkipsNonEmptyCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM menu_items`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := SeedMenu(context.Background(), repositories.NewMenuRepository(db), repositories.NewTransactor(db))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedMenuInsertsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM menu_items`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	for i := range defaultMenu {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO menu_items`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
	}
	mock.ExpectCommit()

	n, err := SeedMenu(context.Background(), repositories.NewMenuRepository(db), repositories.NewTransactor(db))
	require.NoError(t, err)
	assert.Equal(t, len(defaultMenu), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultMenuResolvesBuiltInSets(t *testing.T) {
	catalog := append([]models.MenuItem(nil), defaultMenu...)
	for i := range catalog {
		catalog[i].ID = int64(i + 1)
		catalog[i].IsActive = true
	}
	table, warnings := setmenu.Default().Resolve(catalog)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, table.Len())
}

func TestSchemaDeclaresActivePhoneIndex(t *testing.T) {
	assert.Contains(t, schema, "waitings_active_phone_idx")
	assert.Contains(t, schema, "WHERE status = 'waiting'")
}
