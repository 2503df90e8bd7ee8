package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"id", "name", "description", "price", "image_url", "category", "available"}

func newRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &Repo{DB: mock}, mock
}

func TestCreateRequiresNameAndPrice(t *testing.T) {
	repo, mock := newRepo(t)
	_, err := repo.Create(context.Background(), NewProduct{Name: "Tea"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDefaultsAvailable(t *testing.T) {
	repo, mock := newRepo(t)
	price := decimal.RequireFromString("16.85")
	mock.ExpectQuery("INSERT INTO products").
		WithArgs("Tea", "", pgxmock.AnyArg(), "", "drinks", true).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	id, err := repo.Create(context.Background(), NewProduct{Name: "Tea", Price: &price, Category: "drinks"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM products WHERE id").WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(productCols))

	_, err := repo.Get(context.Background(), 9)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListAvailableByCategory(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`WHERE TRUE AND available = TRUE AND category = \$1 ORDER BY id$`).
		WithArgs("drinks").
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(1), "Tea", "", decimal.RequireFromString("16.85"), "", "drinks", true))

	page, err := repo.List(context.Background(), ListFilter{Category: "drinks"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "16.85", page.Products[0].Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPaginatedAdmin(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE TRUE$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(4, 4).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(5), "Mug", "", decimal.NewFromInt(3), "", "", false))

	page, err := repo.List(context.Background(), ListFilter{Admin: true, Paginate: true, Page: 2, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 11, page.TotalItems)
	assert.Len(t, page.Products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchUsesOnlySetFields(t *testing.T) {
	repo, mock := newRepo(t)
	name := "Green tea"
	off := false
	mock.ExpectExec(`UPDATE products SET name = \$1, available = \$2 WHERE id = \$3`).
		WithArgs("Green tea", false, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Patch(context.Background(), 3, ProductPatch{Name: &name, Available: &off})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchEmptyAndMissing(t *testing.T) {
	repo, mock := newRepo(t)
	err := repo.Patch(context.Background(), 3, ProductPatch{})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	cat := "snacks"
	mock.ExpectExec("UPDATE products SET category").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err = repo.Patch(context.Background(), 42, ProductPatch{Category: &cat})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestDelete(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("DELETE FROM products").WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	err := repo.Delete(context.Background(), 3)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestPrices(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT id, price FROM products").
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "price"}).
			AddRow(int64(1), decimal.RequireFromString("16.85")))

	prices, err := repo.Prices(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.Equal(t, "16.85", prices[1].StringFixed(2))

	empty, err := repo.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
