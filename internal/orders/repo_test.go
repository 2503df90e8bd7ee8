package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const stamp = "2025-06-01 10:20:30"

type RepoSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	repo *Repo
}

func TestRepoSuite(t *testing.T) {
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.mock = mock
	s.repo = &Repo{DB: mock}
}

func (s *RepoSuite) TearDownTest() {
	s.mock.Close()
}

func priceRows(kv ...any) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id", "price"})
	for i := 0; i < len(kv); i += 2 {
		rows.AddRow(kv[i], kv[i+1])
	}
	return rows
}

func (s *RepoSuite) TestCreatePricesFromCatalog() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT id, price FROM products").
		WithArgs([]int64{1}).
		WillReturnRows(priceRows(int64(1), decimal.RequireFromString("16.85")))
	s.mock.ExpectQuery("INSERT INTO orders").
		WithArgs(int64(45), pgxmock.AnyArg(), "pending", "123 Main St", "UPI", stamp).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	s.mock.ExpectExec("INSERT INTO order_items").
		WithArgs(int64(7), int64(1), 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	s.mock.ExpectCommit()

	placed, err := s.repo.CreateOrderTx(context.Background(), CreateInput{
		UserID:          45,
		ShippingAddress: "123 Main St",
		Status:          StatusPending,
		PaymentType:     PaymentUPI,
		Items:           []ItemInput{{ProductID: 1, Quantity: 2}},
	}, stamp)
	s.Require().NoError(err)

	s.Equal(int64(7), placed.Order.ID)
	s.Equal("33.70", placed.Order.TotalAmount.StringFixed(2))
	s.Equal(stamp, placed.Order.CreatedAt)
	s.Equal(stamp, placed.Order.UpdatedAt)
	s.Require().Len(placed.Items, 1)
	s.Equal("16.85", placed.Items[0].Price.StringFixed(2))
	s.Equal(2, placed.Items[0].Quantity)
	s.Equal(int64(7), placed.Items[0].OrderID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RepoSuite) TestCreateMergesDuplicateProductLookups() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT id, price FROM products").
		WithArgs([]int64{1, 5}).
		WillReturnRows(priceRows(
			int64(1), decimal.RequireFromString("16.85"),
			int64(5), decimal.RequireFromString("32.85"),
		))
	s.mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(8)))
	for i := 0; i < 3; i++ {
		s.mock.ExpectExec("INSERT INTO order_items").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	s.mock.ExpectCommit()

	placed, err := s.repo.CreateOrderTx(context.Background(), CreateInput{
		UserID:      1,
		Status:      StatusPending,
		PaymentType: PaymentCOD,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 5, Quantity: 1},
			{ProductID: 1, Quantity: 1},
		},
	}, stamp)
	s.Require().NoError(err)
	// 3 × 16.85 + 32.85
	s.Equal("83.40", placed.Order.TotalAmount.StringFixed(2))
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RepoSuite) TestCreateUnknownProductWritesNothing() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT id, price FROM products").
		WithArgs([]int64{1, 99}).
		WillReturnRows(priceRows(int64(1), decimal.RequireFromString("16.85")))
	s.mock.ExpectRollback()

	_, err := s.repo.CreateOrderTx(context.Background(), CreateInput{
		UserID:      1,
		Status:      StatusPending,
		PaymentType: PaymentUPI,
		Items:       []ItemInput{{ProductID: 1, Quantity: 1}, {ProductID: 99, Quantity: 1}},
	}, stamp)
	s.True(errors.Is(err, apperr.ErrNotFound))
	s.True(errors.Is(err, ErrUnknownProduct))
	s.Contains(err.Error(), "99")
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RepoSuite) TestCreateRollsBackWhenItemInsertFails() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT id, price FROM products").
		WillReturnRows(priceRows(
			int64(1), decimal.RequireFromString("16.85"),
			int64(2), decimal.RequireFromString("5.00"),
		))
	s.mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	s.mock.ExpectExec("INSERT INTO order_items").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	s.mock.ExpectExec("INSERT INTO order_items").WillReturnError(errors.New("disk full"))
	s.mock.ExpectRollback()

	_, err := s.repo.CreateOrderTx(context.Background(), CreateInput{
		UserID:      1,
		Status:      StatusPending,
		PaymentType: PaymentUPI,
		Items:       []ItemInput{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 3}},
	}, stamp)
	s.True(errors.Is(err, apperr.ErrStore))
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RepoSuite) TestUpdateStatus() {
	s.mock.ExpectQuery(`UPDATE orders SET status=\$1, updated_at=\$2, version=version\+1 WHERE id=\$3 RETURNING version`).
		WithArgs("shipped", stamp, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(int64(3)))
	v, err := s.repo.UpdateStatus(context.Background(), 7, "shipped", stamp)
	s.Require().NoError(err)
	s.Equal(StatusView{OrderID: 7, Status: "shipped", UpdatedAt: stamp, Version: 3}, v)

	s.mock.ExpectQuery("UPDATE orders SET status").
		WithArgs("shipped", stamp, int64(404)).
		WillReturnRows(pgxmock.NewRows([]string{"version"}))
	_, err = s.repo.UpdateStatus(context.Background(), 404, "shipped", stamp)
	s.True(errors.Is(err, apperr.ErrNotFound))
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RepoSuite) TestGetStatus() {
	s.mock.ExpectQuery("SELECT status, updated_at, version FROM orders").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "updated_at", "version"}).AddRow("pending", stamp, int64(1)))
	v, err := s.repo.GetStatus(context.Background(), 7)
	s.Require().NoError(err)
	s.Equal(StatusView{OrderID: 7, Status: StatusPending, UpdatedAt: stamp, Version: 1}, v)

	s.mock.ExpectQuery("SELECT status, updated_at, version FROM orders").
		WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"status", "updated_at", "version"}))
	_, err = s.repo.GetStatus(context.Background(), 8)
	s.True(errors.Is(err, apperr.ErrNotFound))
}

func TestListJoinsItemsAndFeedback(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)
	repo := &Repo{DB: mock}

	rating := 5
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders o JOIN users u ON o.user_id = u.id WHERE o.status = \$1`).
		WithArgs("pending").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`ORDER BY o.created_at DESC, o.id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("pending", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at", "total_amount", "status",
			"shipping_address", "payment_type", "username", "name"}).
			AddRow(int64(2), stamp, stamp, decimal.RequireFromString("5.00"), "pending", "", "UPI", "asha", "Asha").
			AddRow(int64(1), stamp, stamp, decimal.RequireFromString("33.70"), "pending", "x", "UPI", "ravi", "Ravi"))
	mock.ExpectQuery("FROM order_items oi").
		WithArgs([]int64{2, 1}).
		WillReturnRows(pgxmock.NewRows([]string{"order_id", "product_id", "quantity", "price", "name", "image_url", "description"}).
			AddRow(int64(1), int64(1), 2, decimal.RequireFromString("16.85"), "Tea", "tea.png", "leaf"))
	mock.ExpectQuery(`FROM feedback f\s+WHERE f.order_id = ANY`).
		WithArgs([]int64{2, 1}).
		WillReturnRows(pgxmock.NewRows([]string{"order_id", "user_id", "rating", "comments", "created_at"}).
			AddRow(int64(1), int64(3), &rating, (*string)(nil), stamp))

	page, err := repo.List(context.Background(), ListFilter{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	require.Len(t, page.Orders, 2)

	assert.Empty(t, page.Orders[0].OrderItems)
	assert.Nil(t, page.Orders[0].Feedback)

	second := page.Orders[1]
	assert.Equal(t, UserRef{Username: "ravi", Name: "Ravi"}, second.User)
	require.Len(t, second.OrderItems, 1)
	assert.Equal(t, "Tea", second.OrderItems[0].ProductName)
	require.NotNil(t, second.Feedback)
	assert.Equal(t, 5, *second.Feedback.Rating)
	assert.Equal(t, int64(3), second.Feedback.UserID)
	assert.Nil(t, second.Feedback.Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUsernameEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &Repo{DB: mock}

	mock.ExpectQuery(`WHERE u.username = \$1`).
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`WHERE u.username = \$1 ORDER BY`).
		WithArgs("nobody", 5, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at", "total_amount", "status",
			"shipping_address", "payment_type", "username", "name"}))

	page, err := repo.ListByUsername(context.Background(), "nobody", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalCount)
	assert.Equal(t, 2, page.Page)
	assert.NotNil(t, page.Orders)
	assert.Empty(t, page.Orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUsernameOnlyOwnFeedback(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)
	repo := &Repo{DB: mock}

	mock.ExpectQuery(`SELECT COUNT\(\*\) .* WHERE u.username = \$1`).
		WithArgs("asha").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`WHERE u.username = \$1 ORDER BY`).
		WithArgs("asha", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at", "total_amount", "status",
			"shipping_address", "payment_type", "username", "name"}).
			AddRow(int64(4), stamp, stamp, decimal.RequireFromString("5.00"), "pending", "", "UPI", "asha", "Asha"))
	mock.ExpectQuery("FROM order_items oi").
		WithArgs([]int64{4}).
		WillReturnRows(pgxmock.NewRows([]string{"order_id", "product_id", "quantity", "price", "name", "image_url", "description"}))
	mock.ExpectQuery(`JOIN orders o ON o.id = f.order_id AND o.user_id = f.user_id`).
		WithArgs([]int64{4}).
		WillReturnRows(pgxmock.NewRows([]string{"order_id", "user_id", "rating", "comments", "created_at"}))

	page, err := repo.ListByUsername(context.Background(), "asha", 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Nil(t, page.Orders[0].Feedback)
	assert.NoError(t, mock.ExpectationsWereMet())
}
