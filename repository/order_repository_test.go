package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"order-service/models"
	"order-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestCreateAggregate_CommitsAllRows(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	orderID := uuid.New()
	order := &models.Order{
		UserID:        42,
		TotalPrice:    decimal.RequireFromString("19.99"),
		OrderStatus:   models.StatusPaid,
		PaymentStatus: "SUCCESS",
	}
	items := []models.OrderItem{
		{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("9.99")},
	}
	payment := &models.Payment{
		PaymentMethod: "PayNow",
		TransactionID: uuid.New().String(),
		PaymentStatus: "SUCCESS",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := repo.CreateAggregate(context.Background(), order, items, payment)
	assert.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, orderID, items[0].OrderID)
	assert.Equal(t, orderID, payment.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAggregate_RollsBackOnItemFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := &models.Order{
		UserID:        42,
		TotalPrice:    decimal.RequireFromString("5.00"),
		OrderStatus:   models.StatusPaid,
		PaymentStatus: "SUCCESS",
	}
	items := []models.OrderItem{{ProductID: "p1", Quantity: 1}}
	payment := &models.Payment{TransactionID: uuid.New().String()}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err := repo.CreateAggregate(context.Background(), order, items, payment)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_MovesMatchingRow(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows, err := repo.TransitionStatus(context.Background(), id, models.CancellableStatuses, models.StatusCancelled, "")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_NoRowWhenStatusOutsideAllowedSet(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	rows, err := repo.TransitionStatus(context.Background(), id, models.CancellableStatuses, models.StatusCancelled, "")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_MirrorsPaymentStatus(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payments" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows, err := repo.TransitionStatus(context.Background(), id, models.RefundableStatuses, models.StatusReturnRefund, "REFUNDED")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	order, err := repo.FindByID(context.Background(), id)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindWithoutPayment_EmptyResult(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "orders" LEFT JOIN payments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	orders, err := repo.FindWithoutPayment(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, orders)
}
