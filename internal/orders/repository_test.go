package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/construpro/construpro-backend/pkg/db/models"
	"github.com/construpro/construpro-backend/pkg/enums"
	pkgerrors "github.com/construpro/construpro-backend/pkg/errors"
)

func newOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderLineItem{}))
	return db
}

func sampleOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		SubtotalCents: 5000,
		TotalCents:    5000,
		ShippingCep:   "01001000",
		LineItems: []models.OrderLineItem{
			{
				VendorID:       uuid.New(),
				Name:           "Cimento 50kg",
				Quantity:       decimal.NewFromInt(2),
				UnitPriceCents: 2500,
				TotalCents:     5000,
			},
		},
	}
}

func TestCreateTxAssignsIDs(t *testing.T) {
	t.Parallel()

	db := newOrderTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	order := sampleOrder(userID)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CreateTx(tx, order)
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID, "order id must be assigned")
	assert.Equal(t, order.ID, order.LineItems[0].OrderID, "line items must reference the order")

	loaded, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.LineItems, 1)
	assert.Equal(t, "Cimento 50kg", loaded.LineItems[0].Name)
}

func TestCreateTxRequiresTransaction(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newOrderTestDB(t))
	require.Error(t, repo.CreateTx(nil, sampleOrder(uuid.New())))
}

func TestGetByIDForUserScopesOwnership(t *testing.T) {
	t.Parallel()

	db := newOrderTestDB(t)
	repo := NewRepository(db)
	owner := uuid.New()
	order := sampleOrder(owner)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error { return repo.CreateTx(tx, order) }))

	_, err := repo.GetByIDForUser(context.Background(), order.ID, owner)
	require.NoError(t, err)

	_, err = repo.GetByIDForUser(context.Background(), order.ID, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "foreign order must fail typed")
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code(), "foreign order must read as not found")
}

func TestListByUserNewestFirst(t *testing.T) {
	t.Parallel()

	db := newOrderTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		order := sampleOrder(userID)
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error { return repo.CreateTx(tx, order) }))
	}

	rows, err := repo.ListByUser(context.Background(), userID, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "limit must apply")
}
