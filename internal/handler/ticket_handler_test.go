package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"
	"salon-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListTicketsEchoesPerPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

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

	salon := model.Salon{Code: "bela-centro", Name: "Studio Bela"}
	require.NoError(t, db.Create(&salon).Error)

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
	h := NewTicketHandler(tickets)

	admin := service.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	_, err = tickets.CreateTicket(context.Background(), salon.ID, admin, service.CreateTicketRequest{ClientName: "Walk-in"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/tickets?per_page=5", nil)
	c.Set("salonID", salon.ID.String())

	h.ListTickets(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Data, "tickets")
	assert.Contains(t, body.Data, "per_page")
	assert.Equal(t, "5", string(body.Data["per_page"]))
	assert.NotContains(t, body.Data, "limit")
}
