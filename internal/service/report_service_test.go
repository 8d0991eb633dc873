package service

import (
	"context"
	"testing"

	"salon-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *ticketFixture) settleTicket(t *testing.T, ticketID string, amount string) {
	t.Helper()
	id := mustID(t, ticketID)
	_, err := f.svc.AddPayment(context.Background(), f.salon.ID, f.admin, id, f.cashPayment(amount))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(context.Background(), f.salon.ID, f.admin, id)
	require.NoError(t, err)
}

func TestCommissionReportAggregatesPaidTickets(t *testing.T) {
	f := newTicketFixture(t)
	reports := NewReportService(repository.NewReportRepository(f.db))

	// Two paid haircuts by Carla plus one ticket left open; only paid
	// tickets count.
	first := f.openTicket(t, f.serviceItem(1))
	f.settleTicket(t, first.ID, "50")
	second := f.openTicket(t, f.serviceItem(2))
	f.settleTicket(t, second.ID, "100")
	f.openTicket(t, f.serviceItem(1))

	report, err := reports.CommissionReport(context.Background(), f.salon.ID, "", "")
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, f.carla.ID.String(), row.StaffID)
	assert.Equal(t, "Carla", row.StaffName)
	assert.Equal(t, 2, row.ItemCount)
	assert.Equal(t, "150.00", row.ServicesTotal)
	assert.Equal(t, "60.00", row.CommissionTotal) // 40% of 150
}

func TestCommissionReportValidatesPeriod(t *testing.T) {
	f := newTicketFixture(t)
	reports := NewReportService(repository.NewReportRepository(f.db))

	_, err := reports.CommissionReport(context.Background(), f.salon.ID, "not-a-date", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = reports.CommissionReport(context.Background(), f.salon.ID, "2026-02-10", "2026-02-01")
	assert.ErrorIs(t, err, ErrValidation)

	report, err := reports.CommissionReport(context.Background(), f.salon.ID, "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", report.From)
	assert.Equal(t, "2026-02-28", report.To)
	assert.Empty(t, report.Rows)
}

func TestDashboardCounters(t *testing.T) {
	f := newTicketFixture(t)
	reports := NewReportService(repository.NewReportRepository(f.db))

	paid := f.openTicket(t, f.serviceItem(1))
	f.settleTicket(t, paid.ID, "50")
	f.openTicket(t, f.productItem(1))

	dash, err := reports.Dashboard(context.Background(), f.salon.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.OpenTickets)
	assert.EqualValues(t, 2, dash.TicketsToday)
	assert.Equal(t, "50.00", dash.RevenueToday)
	assert.Equal(t, "50.00", dash.RevenueMonth)
	assert.EqualValues(t, 1, dash.TotalClients)
	assert.EqualValues(t, 2, dash.TotalStaff)
	assert.EqualValues(t, 1, dash.TotalServices)
	assert.EqualValues(t, 1, dash.TotalProducts)
}
