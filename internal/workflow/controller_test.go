package workflow

import (
	"context"
	"fmt"
	"testing"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"
	"salon-backend/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type flowFixture struct {
	db   *gorm.DB
	ctrl *Controller

	salon   model.Salon
	client  model.Client
	staff   model.Staff
	haircut model.SalonService
	cash    model.PaymentMethod

	admin service.Actor
}

func newFlowFixture(t *testing.T) *flowFixture {
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

	f := &flowFixture{db: db}
	f.salon = model.Salon{Code: "bela-centro", Name: "Studio Bela"}
	require.NoError(t, db.Create(&f.salon).Error)
	f.client = model.Client{SalonID: f.salon.ID, Name: "Ana Souza", IsActive: true}
	require.NoError(t, db.Create(&f.client).Error)
	f.staff = model.Staff{SalonID: f.salon.ID, Name: "Carla", IsActive: true}
	require.NoError(t, db.Create(&f.staff).Error)
	f.haircut = model.SalonService{
		SalonID:           f.salon.ID,
		Name:              "Haircut",
		Price:             decimal.NewFromInt(50),
		CommissionPercent: decimal.NewFromInt(40),
		IsActive:          true,
	}
	require.NoError(t, db.Create(&f.haircut).Error)
	f.cash = model.PaymentMethod{SalonID: f.salon.ID, Name: "Cash", IsActive: true}
	require.NoError(t, db.Create(&f.cash).Error)

	f.admin = service.Actor{UserID: uuid.New(), Role: model.RoleAdmin}

	tickets := service.NewTicketService(
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
	f.ctrl = NewController(tickets)
	return f
}

func (f *flowFixture) staffActor() service.Actor {
	return service.Actor{UserID: uuid.New(), StaffID: &f.staff.ID, Role: model.RoleStaff}
}

func (f *flowFixture) haircutItem() service.TicketItemRequest {
	return service.TicketItemRequest{
		Kind:      model.ItemKindService,
		ServiceID: f.haircut.ID.String(),
		StaffID:   f.staff.ID.String(),
		Quantity:  1,
	}
}

func (f *flowFixture) cashPayment(amount string) service.TicketPaymentRequest {
	return service.TicketPaymentRequest{
		PaymentMethodID: f.cash.ID.String(),
		Amount:          decimal.RequireFromString(amount),
	}
}

func (f *flowFixture) ticketCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&model.Ticket{}).Count(&count).Error)
	return count
}

func TestNormalFlowStagesUntilCommit(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	sess, err := f.ctrl.Begin(ctx, FlowNormal, f.salon.ID, f.admin, BeginOptions{ClientID: &f.client.ID})
	require.NoError(t, err)
	require.True(t, sess.Staging())

	// Mutations accumulate client-side; no ticket exists yet.
	resp, err := f.ctrl.AddItem(ctx, sess, f.haircutItem())
	require.NoError(t, err)
	assert.Nil(t, resp)
	resp, err = f.ctrl.AddPayment(ctx, sess, f.cashPayment("20"))
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Zero(t, f.ticketCount(t))

	ticket, err := f.ctrl.Commit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, ticket.Status)
	assert.Len(t, ticket.Items, 1)
	assert.Len(t, ticket.Payments, 1)
	assert.Equal(t, "30.00", ticket.Balance)

	_, err = f.ctrl.Commit(ctx, sess)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
	_, err = f.ctrl.AddItem(ctx, sess, f.haircutItem())
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestQuickSaleOpensThenClosesInTwoSteps(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	sess, err := f.ctrl.Begin(ctx, FlowQuickSale, f.salon.ID, f.admin, BeginOptions{ClientName: "Walk-in"})
	require.NoError(t, err)
	_, err = f.ctrl.AddItem(ctx, sess, f.haircutItem())
	require.NoError(t, err)

	// Payments belong to the close step; nothing accepts them before the
	// ticket exists.
	_, err = f.ctrl.AddPayment(ctx, sess, f.cashPayment("20"))
	assert.ErrorIs(t, err, ErrNoTicket)

	// Step one creates the ticket with items only, and it is visible
	// server-side in open between the two steps.
	ticket, err := f.ctrl.Commit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, ticket.Status)
	assert.Len(t, ticket.Items, 1)
	assert.Empty(t, ticket.Payments)
	assert.EqualValues(t, 1, f.ticketCount(t))
	var stored model.Ticket
	require.NoError(t, f.db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, model.StatusOpen, stored.Status)

	// A second Commit is no substitute for closing.
	_, err = f.ctrl.Commit(ctx, sess)
	assert.ErrorIs(t, err, ErrNeedsClose)

	// Underpaid close fails with the remaining amount and the ticket stays
	// open with its payments intact.
	_, err = f.ctrl.AddPayment(ctx, sess, f.cashPayment("20"))
	require.NoError(t, err)
	_, err = f.ctrl.Close(ctx, sess)
	var balErr *service.IncompleteBalanceError
	require.ErrorAs(t, err, &balErr)
	assert.Equal(t, "30.00", balErr.Remaining.StringFixed(2))
	require.NoError(t, f.db.First(&stored, "id = ?", ticket.ID).Error)
	assert.Equal(t, model.StatusOpen, stored.Status)

	// Settling the balance lets the close succeed.
	_, err = f.ctrl.AddPayment(ctx, sess, f.cashPayment("30"))
	require.NoError(t, err)
	closed, err := f.ctrl.Close(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	_, err = f.ctrl.AddItem(ctx, sess, f.haircutItem())
	assert.ErrorIs(t, err, ErrAlreadyClosed)
	_, err = f.ctrl.Close(ctx, sess)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestContinuationAttachesToExistingTicket(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	_, err := f.ctrl.Begin(ctx, FlowContinuation, f.salon.ID, f.admin, BeginOptions{})
	assert.ErrorIs(t, err, ErrNeedsTicketID)

	unknown := uuid.New()
	_, err = f.ctrl.Begin(ctx, FlowContinuation, f.salon.ID, f.admin, BeginOptions{TicketID: &unknown})
	assert.ErrorIs(t, err, service.ErrTicketNotFound)

	// Open a ticket through a normal flow first.
	open, err := f.ctrl.Begin(ctx, FlowNormal, f.salon.ID, f.admin, BeginOptions{ClientID: &f.client.ID})
	require.NoError(t, err)
	created, err := f.ctrl.Commit(ctx, open)
	require.NoError(t, err)
	ticketID, err := uuid.Parse(created.ID)
	require.NoError(t, err)

	sess, err := f.ctrl.Begin(ctx, FlowContinuation, f.salon.ID, f.admin, BeginOptions{TicketID: &ticketID})
	require.NoError(t, err)
	assert.False(t, sess.Staging())

	// Changes apply immediately and return fresh server state.
	resp, err := f.ctrl.AddItem(ctx, sess, f.haircutItem())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "50.00", resp.Total)
}

func TestSelfServiceAttachesToClientsOpenTicket(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	open, err := f.ctrl.Begin(ctx, FlowNormal, f.salon.ID, f.admin, BeginOptions{ClientID: &f.client.ID})
	require.NoError(t, err)
	created, err := f.ctrl.Commit(ctx, open)
	require.NoError(t, err)

	sess, err := f.ctrl.Begin(ctx, FlowSelfService, f.salon.ID, f.staffActor(), BeginOptions{ClientID: &f.client.ID})
	require.NoError(t, err)
	require.NotNil(t, sess.TicketID)
	assert.Equal(t, created.ID, sess.TicketID.String())

	resp, err := f.ctrl.AddItem(ctx, sess, f.haircutItem())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Len(t, resp.Items, 1)
	assert.EqualValues(t, 1, f.ticketCount(t))
}

func TestSelfServiceFirstItemOpensTicket(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	sess, err := f.ctrl.Begin(ctx, FlowSelfService, f.salon.ID, f.staffActor(), BeginOptions{ClientID: &f.client.ID})
	require.NoError(t, err)
	assert.Nil(t, sess.TicketID)
	assert.Zero(t, f.ticketCount(t))

	// The staff actor gets attributed even without naming themselves.
	req := service.TicketItemRequest{
		Kind:      model.ItemKindService,
		ServiceID: f.haircut.ID.String(),
		Quantity:  1,
	}
	resp, err := f.ctrl.AddItem(ctx, sess, req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotNil(t, sess.TicketID)
	require.Len(t, resp.Items, 1)
	require.NotNil(t, resp.Items[0].StaffID)
	assert.Equal(t, f.staff.ID.String(), *resp.Items[0].StaffID)

	// The next item lands on the same ticket.
	resp, err = f.ctrl.AddItem(ctx, sess, req)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.EqualValues(t, 1, f.ticketCount(t))
}

func TestRemoveStagedItemByIndex(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	sess, err := f.ctrl.Begin(ctx, FlowNormal, f.salon.ID, f.admin, BeginOptions{ClientID: &f.client.ID})
	require.NoError(t, err)

	first := f.haircutItem()
	second := f.haircutItem()
	second.Quantity = 2
	_, err = f.ctrl.AddItem(ctx, sess, first)
	require.NoError(t, err)
	_, err = f.ctrl.AddItem(ctx, sess, second)
	require.NoError(t, err)

	require.Error(t, f.ctrl.RemoveStagedItem(sess, 5))
	require.NoError(t, f.ctrl.RemoveStagedItem(sess, 0))

	ticket, err := f.ctrl.Commit(ctx, sess)
	require.NoError(t, err)
	require.Len(t, ticket.Items, 1)
	assert.Equal(t, 2, ticket.Items[0].Quantity)
}

func TestBeginRejectsUnknownFlow(t *testing.T) {
	f := newFlowFixture(t)

	_, err := f.ctrl.Begin(context.Background(), FlowMode("walk_out"), f.salon.ID, f.admin, BeginOptions{})
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestRemoveItemNeedsAttachedTicket(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	sess, err := f.ctrl.Begin(ctx, FlowNormal, f.salon.ID, f.admin, BeginOptions{ClientID: &f.client.ID})
	require.NoError(t, err)

	_, err = f.ctrl.RemoveItem(ctx, sess, uuid.New())
	assert.ErrorIs(t, err, ErrNoTicket)
	_, err = f.ctrl.Refresh(ctx, sess)
	assert.ErrorIs(t, err, ErrNoTicket)
}
