package repository

import (
	"context"
	"time"

	"salon-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionRow is one staff member's commission totals for a period.
type CommissionRow struct {
	StaffID         uuid.UUID       `gorm:"column:staff_id"`
	StaffName       string          `gorm:"column:staff_name"`
	ItemCount       int             `gorm:"column:item_count"`
	ServicesTotal   decimal.Decimal `gorm:"column:services_total"`
	CommissionTotal decimal.Decimal `gorm:"column:commission_total"`
}

// DashboardCounters aggregates the landing-page numbers.
type DashboardCounters struct {
	OpenTickets   int64
	TicketsToday  int64
	RevenueToday  decimal.Decimal
	RevenueMonth  decimal.Decimal
	TotalClients  int64
	TotalStaff    int64
	TotalServices int64
	TotalProducts int64
}

type ReportRepository interface {
	CommissionsByStaff(ctx context.Context, salonID uuid.UUID, from, to time.Time) ([]CommissionRow, error)
	Dashboard(ctx context.Context, salonID uuid.UUID, now time.Time) (DashboardCounters, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// CommissionsByStaff sums commission values of paid tickets closed in [from, to].
func (r *reportRepository) CommissionsByStaff(ctx context.Context, salonID uuid.UUID, from, to time.Time) ([]CommissionRow, error) {
	var rows []CommissionRow
	err := GetDB(ctx, r.db).
		Table("ticket_items").
		Select(`ticket_items.staff_id AS staff_id,
			staffs.name AS staff_name,
			COUNT(ticket_items.id) AS item_count,
			COALESCE(SUM(ticket_items.line_total), 0) AS services_total,
			COALESCE(SUM(ticket_items.commission_value), 0) AS commission_total`).
		Joins("JOIN tickets ON tickets.id = ticket_items.ticket_id").
		Joins("JOIN staffs ON staffs.id = ticket_items.staff_id").
		Where("tickets.salon_id = ? AND tickets.status = ?", salonID, model.StatusPaid).
		Where("tickets.closed_at BETWEEN ? AND ?", from, to).
		Where("ticket_items.staff_id IS NOT NULL").
		Group("ticket_items.staff_id, staffs.name").
		Order("commission_total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reportRepository) Dashboard(ctx context.Context, salonID uuid.UUID, now time.Time) (DashboardCounters, error) {
	var c DashboardCounters
	db := GetDB(ctx, r.db)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	if err := db.Model(&model.Ticket{}).
		Where("salon_id = ? AND status NOT IN ?", salonID, []string{model.StatusPaid, model.StatusCancelled}).
		Count(&c.OpenTickets).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.Ticket{}).
		Where("salon_id = ? AND opened_at >= ?", salonID, dayStart).
		Count(&c.TicketsToday).Error; err != nil {
		return c, err
	}

	var sums struct {
		Today decimal.Decimal `gorm:"column:today"`
		Month decimal.Decimal `gorm:"column:month"`
	}
	if err := db.Model(&model.Ticket{}).
		Select(`COALESCE(SUM(CASE WHEN closed_at >= ? THEN total ELSE 0 END), 0) AS today,
			COALESCE(SUM(total), 0) AS month`, dayStart).
		Where("salon_id = ? AND status = ? AND closed_at >= ?", salonID, model.StatusPaid, monthStart).
		Scan(&sums).Error; err != nil {
		return c, err
	}
	c.RevenueToday = sums.Today
	c.RevenueMonth = sums.Month

	if err := db.Model(&model.Client{}).Where("salon_id = ?", salonID).Count(&c.TotalClients).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.Staff{}).Where("salon_id = ?", salonID).Count(&c.TotalStaff).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.SalonService{}).Where("salon_id = ?", salonID).Count(&c.TotalServices).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.Product{}).Where("salon_id = ?", salonID).Count(&c.TotalProducts).Error; err != nil {
		return c, err
	}

	return c, nil
}
