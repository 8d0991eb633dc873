package service

import (
	"context"
	"testing"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type catalogFixture struct {
	db    *gorm.DB
	svc   CatalogService
	salon model.Salon
	other model.Salon
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	db := newTestDB(t)
	f := &catalogFixture{db: db}

	f.salon = model.Salon{Code: "bela-centro", Name: "Studio Bela"}
	require.NoError(t, db.Create(&f.salon).Error)
	f.other = model.Salon{Code: "bela-norte", Name: "Studio Bela Norte"}
	require.NoError(t, db.Create(&f.other).Error)

	f.svc = NewCatalogService(
		repository.NewServiceRepository(db),
		repository.NewProductRepository(db),
		repository.NewPaymentMethodRepository(db),
		repository.NewStockRepository(db),
		repository.NewTransactionManager(db),
	)
	return f
}

func (f *catalogFixture) createProduct(t *testing.T, stock int) *ProductResponse {
	t.Helper()
	resp, err := f.svc.CreateProduct(context.Background(), f.salon.ID, ProductRequest{
		Name:         "Conditioner 300ml",
		SalePrice:    decimal.NewFromInt(30),
		CurrentStock: &stock,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateServiceValidatesCommission(t *testing.T) {
	f := newCatalogFixture(t)

	_, err := f.svc.CreateService(context.Background(), f.salon.ID, SalonServiceRequest{
		Name:              "Haircut",
		Price:             decimal.NewFromInt(50),
		CommissionPercent: decimal.NewFromInt(140),
	})
	assert.ErrorIs(t, err, ErrValidation)

	resp, err := f.svc.CreateService(context.Background(), f.salon.ID, SalonServiceRequest{
		Name:              "Haircut",
		Price:             decimal.NewFromInt(50),
		CommissionPercent: decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", resp.Price)
	assert.True(t, resp.IsActive)
}

func TestUpdateServiceIsSalonScoped(t *testing.T) {
	f := newCatalogFixture(t)

	created, err := f.svc.CreateService(context.Background(), f.salon.ID, SalonServiceRequest{
		Name:  "Haircut",
		Price: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	req := SalonServiceRequest{Name: "Haircut deluxe", Price: decimal.NewFromInt(70)}
	_, err = f.svc.UpdateService(context.Background(), f.other.ID, mustID(t, created.ID), req)
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	updated, err := f.svc.UpdateService(context.Background(), f.salon.ID, mustID(t, created.ID), req)
	require.NoError(t, err)
	assert.Equal(t, "Haircut deluxe", updated.Name)
	assert.Equal(t, "70.00", updated.Price)
}

func TestAdjustStockRecordsMovement(t *testing.T) {
	f := newCatalogFixture(t)
	product := f.createProduct(t, 10)
	productID := mustID(t, product.ID)

	_, err := f.svc.AdjustStock(context.Background(), f.salon.ID, productID, 0, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AdjustStock(context.Background(), f.salon.ID, productID, -15, "shrinkage")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := f.svc.AdjustStock(context.Background(), f.salon.ID, productID, -4, "breakage")
	require.NoError(t, err)
	assert.Equal(t, 6, updated.CurrentStock)

	movements, total, err := f.svc.ListStockMovements(context.Background(), f.salon.ID, productID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementAdjustment, movements[0].MovementType)
	assert.Equal(t, -4, movements[0].QuantityChanged)
	assert.Equal(t, 6, movements[0].StockAfter)
	assert.Equal(t, "breakage", movements[0].Notes)
}

func TestUpdateProductDoesNotTouchStock(t *testing.T) {
	f := newCatalogFixture(t)
	product := f.createProduct(t, 10)

	newStock := 99
	updated, err := f.svc.UpdateProduct(context.Background(), f.salon.ID, mustID(t, product.ID), ProductRequest{
		Name:         "Conditioner 300ml",
		SalePrice:    decimal.NewFromInt(35),
		CurrentStock: &newStock,
	})
	require.NoError(t, err)
	assert.Equal(t, "35.00", updated.SalePrice)
	// Stock only moves through AdjustStock so every change leaves a movement.
	assert.Equal(t, 10, updated.CurrentStock)
}

func TestPaymentMethodLifecycle(t *testing.T) {
	f := newCatalogFixture(t)

	created, err := f.svc.CreatePaymentMethod(context.Background(), f.salon.ID, PaymentMethodRequest{
		Name:           "Credit card",
		FeePercent:     decimal.RequireFromString("2.5"),
		SettlementDays: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "2.50", created.FeePercent)

	methods, total, err := f.svc.ListPaymentMethods(context.Background(), f.salon.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, methods, 1)

	require.NoError(t, f.svc.DeletePaymentMethod(context.Background(), f.salon.ID, mustID(t, created.ID)))
	_, total, err = f.svc.ListPaymentMethods(context.Background(), f.salon.ID, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}
