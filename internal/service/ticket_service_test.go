package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Salon{}, &model.User{}, &model.RefreshToken{},
		&model.Staff{}, &model.Client{},
		&model.SalonService{}, &model.Product{}, &model.PaymentMethod{},
		&model.Ticket{}, &model.TicketItem{}, &model.TicketPayment{},
		&model.StockMovement{}, &model.AuditLog{},
	))
	return db
}

type ticketFixture struct {
	db  *gorm.DB
	svc TicketService

	salon       model.Salon
	otherSalon  model.Salon
	client      model.Client
	carla       model.Staff
	bruno       model.Staff
	haircut     model.SalonService
	conditioner model.Product
	cash        model.PaymentMethod

	admin Actor
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	db := newTestDB(t)
	f := &ticketFixture{db: db}

	f.salon = model.Salon{Code: "bela-centro", Name: "Studio Bela"}
	require.NoError(t, db.Create(&f.salon).Error)
	f.otherSalon = model.Salon{Code: "bela-norte", Name: "Studio Bela Norte"}
	require.NoError(t, db.Create(&f.otherSalon).Error)

	f.client = model.Client{SalonID: f.salon.ID, Name: "Ana Souza", IsActive: true}
	require.NoError(t, db.Create(&f.client).Error)

	f.carla = model.Staff{SalonID: f.salon.ID, Name: "Carla", IsActive: true}
	require.NoError(t, db.Create(&f.carla).Error)
	f.bruno = model.Staff{SalonID: f.salon.ID, Name: "Bruno", IsActive: true}
	require.NoError(t, db.Create(&f.bruno).Error)

	f.haircut = model.SalonService{
		SalonID:           f.salon.ID,
		Name:              "Haircut",
		Price:             decimal.NewFromInt(50),
		CommissionPercent: decimal.NewFromInt(40),
		IsActive:          true,
	}
	require.NoError(t, db.Create(&f.haircut).Error)

	f.conditioner = model.Product{
		SalonID:           f.salon.ID,
		Name:              "Conditioner 300ml",
		SalePrice:         decimal.NewFromInt(30),
		CommissionPercent: decimal.NewFromInt(10),
		CurrentStock:      10,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&f.conditioner).Error)

	f.cash = model.PaymentMethod{SalonID: f.salon.ID, Name: "Cash", IsActive: true}
	require.NoError(t, db.Create(&f.cash).Error)

	adminUser := model.User{
		SalonID:  f.salon.ID,
		Name:     "Front Desk",
		Email:    "desk@studiobela.test",
		Password: "x",
		Role:     model.RoleAdmin,
	}
	require.NoError(t, db.Create(&adminUser).Error)
	f.admin = Actor{UserID: adminUser.ID, Role: model.RoleAdmin}

	f.svc = NewTicketService(
		repository.NewTicketRepository(db),
		repository.NewServiceRepository(db),
		repository.NewProductRepository(db),
		repository.NewPaymentMethodRepository(db),
		repository.NewClientRepository(db),
		repository.NewStaffRepository(db),
		repository.NewStockRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		nil,
	)
	return f
}

func (f *ticketFixture) staffActor(staffID uuid.UUID) Actor {
	return Actor{UserID: uuid.New(), StaffID: &staffID, Role: model.RoleStaff}
}

func (f *ticketFixture) serviceItem(quantity int) TicketItemRequest {
	return TicketItemRequest{
		Kind:      model.ItemKindService,
		ServiceID: f.haircut.ID.String(),
		StaffID:   f.carla.ID.String(),
		Quantity:  quantity,
	}
}

func (f *ticketFixture) productItem(quantity int) TicketItemRequest {
	return TicketItemRequest{
		Kind:      model.ItemKindProduct,
		ProductID: f.conditioner.ID.String(),
		Quantity:  quantity,
	}
}

func (f *ticketFixture) cashPayment(amount string) TicketPaymentRequest {
	return TicketPaymentRequest{
		PaymentMethodID: f.cash.ID.String(),
		Amount:          decimal.RequireFromString(amount),
	}
}

func (f *ticketFixture) openTicket(t *testing.T, items ...TicketItemRequest) *TicketResponse {
	t.Helper()
	resp, err := f.svc.CreateTicket(context.Background(), f.salon.ID, f.admin, CreateTicketRequest{
		ClientID: f.client.ID.String(),
		Items:    items,
	})
	require.NoError(t, err)
	return resp
}

func mustID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestCreateTicketComputesTotals(t *testing.T) {
	f := newTicketFixture(t)

	resp := f.openTicket(t, f.serviceItem(1), f.productItem(2))

	assert.Equal(t, "000001", resp.Number)
	assert.Equal(t, model.StatusOpen, resp.Status)
	assert.Equal(t, "110.00", resp.Subtotal) // 50 + 2×30
	assert.Equal(t, "110.00", resp.Total)
	assert.Equal(t, "0.00", resp.AmountPaid)
	assert.Equal(t, "110.00", resp.Balance)
	require.Len(t, resp.Items, 2)
	byKind := map[string]TicketItemResponse{}
	for _, item := range resp.Items {
		byKind[item.Kind] = item
	}
	assert.Equal(t, "Haircut", byKind[model.ItemKindService].Description)
	assert.Equal(t, "20.00", byKind[model.ItemKindService].CommissionValue) // 50 × 40%
	assert.Equal(t, "6.00", byKind[model.ItemKindProduct].CommissionValue)  // 60 × 10%
}

func TestCreateTicketSequencesNumbersPerSalon(t *testing.T) {
	f := newTicketFixture(t)

	first := f.openTicket(t)
	second := f.openTicket(t)

	assert.Equal(t, "000001", first.Number)
	assert.Equal(t, "000002", second.Number)
}

func TestCreateTicketRequiresClientReference(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.CreateTicket(context.Background(), f.salon.ID, f.admin, CreateTicketRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	// A free-text walk-in name is enough.
	resp, err := f.svc.CreateTicket(context.Background(), f.salon.ID, f.admin, CreateTicketRequest{
		ClientName: "Walk-in",
	})
	require.NoError(t, err)
	assert.Equal(t, "Walk-in", resp.ClientName)
}

func TestCreateTicketRejectsBadStatus(t *testing.T) {
	f := newTicketFixture(t)

	for _, status := range []string{model.StatusCancelled, "closed"} {
		_, err := f.svc.CreateTicket(context.Background(), f.salon.ID, f.admin, CreateTicketRequest{
			ClientID: f.client.ID.String(),
			Status:   status,
		})
		assert.ErrorIs(t, err, ErrInvalidStatus, status)
	}
}

func TestCreateTicketPaidNeedsFullPayment(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.CreateTicket(context.Background(), f.salon.ID, f.admin, CreateTicketRequest{
		ClientID: f.client.ID.String(),
		Status:   model.StatusPaid,
		Items:    []TicketItemRequest{f.serviceItem(1)},
		Payments: []TicketPaymentRequest{f.cashPayment("20")},
	})
	var balErr *IncompleteBalanceError
	require.ErrorAs(t, err, &balErr)
	assert.Equal(t, "30.00", balErr.Remaining.StringFixed(2))

	// The whole create rolls back; no half-made ticket survives.
	var count int64
	require.NoError(t, f.db.Model(&model.Ticket{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateTicketPaidSettlesInOneShot(t *testing.T) {
	f := newTicketFixture(t)

	resp, err := f.svc.CreateTicket(context.Background(), f.salon.ID, f.admin, CreateTicketRequest{
		ClientID: f.client.ID.String(),
		Status:   model.StatusPaid,
		Items:    []TicketItemRequest{f.serviceItem(1), f.productItem(2)},
		Payments: []TicketPaymentRequest{f.cashPayment("110")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, resp.Status)
	require.NotNil(t, resp.ClosedAt)
	assert.Equal(t, "0.00", resp.Balance)

	var product model.Product
	require.NoError(t, f.db.First(&product, "id = ?", f.conditioner.ID).Error)
	assert.Equal(t, 8, product.CurrentStock)

	var movements []model.StockMovement
	require.NoError(t, f.db.Find(&movements, "product_id = ?", f.conditioner.ID).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementOut, movements[0].MovementType)
	assert.Equal(t, -2, movements[0].QuantityChanged)
	assert.Equal(t, 8, movements[0].StockAfter)

	var client model.Client
	require.NoError(t, f.db.First(&client, "id = ?", f.client.ID).Error)
	assert.Equal(t, 1, client.VisitCount)
	assert.NotNil(t, client.LastVisitAt)
}

func TestAddItemSnapshotsCatalog(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1))

	// A later price change must not rewrite lines already on the ticket.
	require.NoError(t, f.db.Model(&model.SalonService{}).
		Where("id = ?", f.haircut.ID).
		Update("price", decimal.NewFromInt(80)).Error)

	reloaded, err := f.svc.GetTicket(context.Background(), f.salon.ID, mustID(t, ticket.ID))
	require.NoError(t, err)
	assert.Equal(t, "50.00", reloaded.Items[0].UnitPrice)
	assert.Equal(t, "50.00", reloaded.Subtotal)

	// New lines pick up the new price.
	item, err := f.svc.AddItem(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), f.serviceItem(1))
	require.NoError(t, err)
	assert.Equal(t, "80.00", item.UnitPrice)
}

func TestAddItemHonorsOverrides(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t)

	price := decimal.RequireFromString("45.50")
	pct := decimal.NewFromInt(25)
	req := f.serviceItem(2)
	req.UnitPrice = &price
	req.CommissionPercent = &pct
	req.Discount = decimal.NewFromInt(1)

	item, err := f.svc.AddItem(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), req)
	require.NoError(t, err)
	assert.Equal(t, "45.50", item.UnitPrice)
	assert.Equal(t, "90.00", item.LineTotal)       // 2×45.50 − 1
	assert.Equal(t, "22.50", item.CommissionValue) // 90 × 25%
}

func TestAddItemRejectsForeignCatalog(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t)

	foreign := model.SalonService{
		SalonID:  f.otherSalon.ID,
		Name:     "Massage",
		Price:    decimal.NewFromInt(90),
		IsActive: true,
	}
	require.NoError(t, f.db.Create(&foreign).Error)

	req := TicketItemRequest{
		Kind:      model.ItemKindService,
		ServiceID: foreign.ID.String(),
		Quantity:  1,
	}
	_, err := f.svc.AddItem(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), req)
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestUpdateItemQuantityClampsAtOne(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.productItem(1))
	itemID := mustID(t, ticket.Items[0].ID)

	item, err := f.svc.UpdateItemQuantity(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), itemID, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	item, err = f.svc.UpdateItemQuantity(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), itemID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "90.00", item.LineTotal)

	reloaded, err := f.svc.GetTicket(context.Background(), f.salon.ID, mustID(t, ticket.ID))
	require.NoError(t, err)
	assert.Equal(t, "90.00", reloaded.Total)
}

func TestRemoveItemRecomputesTotals(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1), f.productItem(1))
	require.Equal(t, "80.00", ticket.Total)

	var productLine TicketItemResponse
	for _, item := range ticket.Items {
		if item.Kind == model.ItemKindProduct {
			productLine = item
		}
	}
	err := f.svc.RemoveItem(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), mustID(t, productLine.ID))
	require.NoError(t, err)

	reloaded, err := f.svc.GetTicket(context.Background(), f.salon.ID, mustID(t, ticket.ID))
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "50.00", reloaded.Total)

	err = f.svc.RemoveItem(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), uuid.New())
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSelfServiceStaffOwnsTheirLines(t *testing.T) {
	f := newTicketFixture(t)
	carla := f.staffActor(f.carla.ID)
	bruno := f.staffActor(f.bruno.ID)

	ticket := f.openTicket(t)

	// A staff actor adding a service line without naming staff gets attributed.
	req := TicketItemRequest{
		Kind:      model.ItemKindService,
		ServiceID: f.haircut.ID.String(),
		Quantity:  1,
	}
	item, err := f.svc.AddItem(context.Background(), f.salon.ID, carla, mustID(t, ticket.ID), req)
	require.NoError(t, err)
	require.NotNil(t, item.StaffID)
	assert.Equal(t, f.carla.ID.String(), *item.StaffID)

	// Another staff member may not remove the line; its owner may.
	err = f.svc.RemoveItem(context.Background(), f.salon.ID, bruno, mustID(t, ticket.ID), mustID(t, item.ID))
	assert.ErrorIs(t, err, ErrNotOwner)

	err = f.svc.RemoveItem(context.Background(), f.salon.ID, carla, mustID(t, ticket.ID), mustID(t, item.ID))
	assert.NoError(t, err)
}

func TestAddPaymentRejectsNonPositiveAmount(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1))

	for _, amount := range []string{"0", "-10"} {
		_, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), f.cashPayment(amount))
		assert.ErrorIs(t, err, ErrValidation, amount)
	}
}

func TestRemovePaymentRecomputesAmountPaid(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1))

	payment, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), f.cashPayment("20"))
	require.NoError(t, err)
	assert.Equal(t, "Cash", payment.MethodName)

	reloaded, err := f.svc.GetTicket(context.Background(), f.salon.ID, mustID(t, ticket.ID))
	require.NoError(t, err)
	assert.Equal(t, "20.00", reloaded.AmountPaid)
	assert.Equal(t, "30.00", reloaded.Balance)

	err = f.svc.RemovePayment(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), mustID(t, payment.ID))
	require.NoError(t, err)

	reloaded, err = f.svc.GetTicket(context.Background(), f.salon.ID, mustID(t, ticket.ID))
	require.NoError(t, err)
	assert.Equal(t, "0.00", reloaded.AmountPaid)
}

func TestMarkPaidRequiresSettledBalance(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1))
	ticketID := mustID(t, ticket.ID)

	// Underpaid.
	_, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, ticketID, f.cashPayment("30"))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, ticketID)
	var balErr *IncompleteBalanceError
	require.ErrorAs(t, err, &balErr)
	assert.Equal(t, "20.00", balErr.Remaining.StringFixed(2))

	// Overpaid beyond the epsilon fails too; change is not tracked.
	_, err = f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, ticketID, f.cashPayment("25"))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, ticketID)
	require.ErrorAs(t, err, &balErr)
	assert.Equal(t, "-5.00", balErr.Remaining.StringFixed(2))
}

func TestMarkPaidToleratesRoundingEpsilon(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1))
	ticketID := mustID(t, ticket.ID)

	_, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, ticketID, f.cashPayment("49.99"))
	require.NoError(t, err)

	resp, err := f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, ticketID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, resp.Status)
	assert.NotNil(t, resp.ClosedAt)
}

func TestPaidTicketIsFrozen(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1))
	ticketID := mustID(t, ticket.ID)

	_, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, ticketID, f.cashPayment("50"))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, ticketID)
	require.NoError(t, err)

	_, err = f.svc.AddItem(context.Background(), f.salon.ID, f.admin, ticketID, f.serviceItem(1))
	assert.ErrorIs(t, err, ErrTicketTerminal)
	_, err = f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, ticketID, f.cashPayment("1"))
	assert.ErrorIs(t, err, ErrTicketTerminal)
	notes := "late edit"
	_, err = f.svc.UpdateTicket(context.Background(), f.salon.ID, f.admin, ticketID, UpdateTicketRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrTicketTerminal)
	_, err = f.svc.CancelTicket(context.Background(), f.salon.ID, f.admin, ticketID)
	assert.ErrorIs(t, err, ErrTicketTerminal)
}

func TestCancelKeepsHistoryAndStock(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.productItem(2))
	ticketID := mustID(t, ticket.ID)

	_, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, ticketID, f.cashPayment("10"))
	require.NoError(t, err)

	resp, err := f.svc.CancelTicket(context.Background(), f.salon.ID, f.admin, ticketID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, resp.Status)
	require.NotNil(t, resp.ClosedAt)
	// Items and payments stay as historical record.
	assert.Len(t, resp.Items, 1)
	assert.Len(t, resp.Payments, 1)

	// Stock was never consumed: only the paid transition moves stock.
	var product model.Product
	require.NoError(t, f.db.First(&product, "id = ?", f.conditioner.ID).Error)
	assert.Equal(t, 10, product.CurrentStock)

	_, err = f.svc.AddItem(context.Background(), f.salon.ID, f.admin, ticketID, f.productItem(1))
	assert.ErrorIs(t, err, ErrTicketTerminal)
}

func TestTicketTotalDiscountsAndSurcharge(t *testing.T) {
	f := newTicketFixture(t)

	resp, err := f.svc.CreateTicket(context.Background(), f.salon.ID, f.admin, CreateTicketRequest{
		ClientID:        f.client.ID.String(),
		Items:           []TicketItemRequest{f.serviceItem(2)}, // subtotal 100
		Discount:        decimal.NewFromInt(10),
		DiscountPercent: decimal.NewFromInt(10),
		Surcharge:       decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", resp.Subtotal)
	assert.Equal(t, "85.00", resp.Total) // 100 − 10 − 10% + 5

	// The total never goes negative.
	update := UpdateTicketRequest{Discount: decimalPtr("200")}
	resp, err = f.svc.UpdateTicket(context.Background(), f.salon.ID, f.admin, mustID(t, resp.ID), update)
	require.NoError(t, err)
	assert.Equal(t, "0.00", resp.Total)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestGetTicketIsSalonScoped(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t)

	_, err := f.svc.GetTicket(context.Background(), f.otherSalon.ID, mustID(t, ticket.ID))
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, err = f.svc.MarkPaid(context.Background(), f.otherSalon.ID, f.admin, mustID(t, ticket.ID))
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestFindOpenTicketForClient(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.FindOpenTicketForClient(context.Background(), f.salon.ID, f.client.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	ticket := f.openTicket(t, f.serviceItem(1))
	found, err := f.svc.FindOpenTicketForClient(context.Background(), f.salon.ID, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, found.ID)

	// A settled ticket no longer counts as open.
	_, err = f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID), f.cashPayment("50"))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, mustID(t, ticket.ID))
	require.NoError(t, err)

	_, err = f.svc.FindOpenTicketForClient(context.Background(), f.salon.ID, f.client.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestListTicketsFiltersByStatus(t *testing.T) {
	f := newTicketFixture(t)

	open := f.openTicket(t, f.serviceItem(1))
	toCancel := f.openTicket(t)
	_, err := f.svc.CancelTicket(context.Background(), f.salon.ID, f.admin, mustID(t, toCancel.ID))
	require.NoError(t, err)

	all, total, err := f.svc.ListTickets(context.Background(), f.salon.ID, TicketListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	openOnly, total, err := f.svc.ListTickets(context.Background(), f.salon.ID, TicketListFilter{Status: model.StatusOpen})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, openOnly, 1)
	assert.Equal(t, open.ID, openOnly[0].ID)

	_, _, err = f.svc.ListTickets(context.Background(), f.salon.ID, TicketListFilter{Status: "closed"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTwoOperatorsEditSameTicket(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t)
	ticketID := mustID(t, ticket.ID)

	carla := f.staffActor(f.carla.ID)
	bruno := f.staffActor(f.bruno.ID)

	_, err := f.svc.AddItem(context.Background(), f.salon.ID, carla, ticketID, TicketItemRequest{
		Kind: model.ItemKindService, ServiceID: f.haircut.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.AddItem(context.Background(), f.salon.ID, bruno, ticketID, TicketItemRequest{
		Kind: model.ItemKindService, ServiceID: f.haircut.ID.String(), Quantity: 1,
	})
	require.NoError(t, err)

	// Both lines persist and the total reflects both.
	reloaded, err := f.svc.GetTicket(context.Background(), f.salon.ID, ticketID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	assert.Equal(t, "100.00", reloaded.Total)
	assert.NotEqual(t, *reloaded.Items[0].StaffID, *reloaded.Items[1].StaffID)
}

func TestAuditTrailRecordsLifecycle(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.openTicket(t, f.serviceItem(1))
	ticketID := mustID(t, ticket.ID)

	_, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, ticketID, f.cashPayment("50"))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, ticketID)
	require.NoError(t, err)

	var actions []string
	require.NoError(t, f.db.Model(&model.AuditLog{}).
		Where("entity_id = ?", ticket.ID).
		Order("created_at asc").
		Pluck("action", &actions).Error)
	assert.Contains(t, actions, model.ActionCreateTicket)
	assert.Contains(t, actions, model.ActionAddPayment)
	assert.Contains(t, actions, model.ActionTicketPaid)
}

func TestLockMutableRejectsUnknownTicket(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, uuid.New())
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.False(t, errors.Is(err, ErrTicketTerminal))
}
