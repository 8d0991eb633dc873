package service

import (
	"context"
	"fmt"
	"time"

	"salon-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type DashboardResponse struct {
	OpenTickets   int64  `json:"open_tickets"`
	TicketsToday  int64  `json:"tickets_today"`
	RevenueToday  string `json:"revenue_today"`
	RevenueMonth  string `json:"revenue_month"`
	TotalClients  int64  `json:"total_clients"`
	TotalStaff    int64  `json:"total_staff"`
	TotalServices int64  `json:"total_services"`
	TotalProducts int64  `json:"total_products"`
}

type CommissionReportRow struct {
	StaffID         string `json:"staff_id"`
	StaffName       string `json:"staff_name"`
	ItemCount       int    `json:"item_count"`
	ServicesTotal   string `json:"services_total"`
	CommissionTotal string `json:"commission_total"`
}

type CommissionReportResponse struct {
	From string                `json:"from"`
	To   string                `json:"to"`
	Rows []CommissionReportRow `json:"rows"`
}

// --- Interface ---

type ReportService interface {
	Dashboard(ctx context.Context, salonID uuid.UUID) (*DashboardResponse, error)
	CommissionReport(ctx context.Context, salonID uuid.UUID, from, to string) (*CommissionReportResponse, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) ReportService {
	return &reportService{reportRepo: reportRepo}
}

// --- Implementation ---

func (s *reportService) Dashboard(ctx context.Context, salonID uuid.UUID) (*DashboardResponse, error) {
	counters, err := s.reportRepo.Dashboard(ctx, salonID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return &DashboardResponse{
		OpenTickets:   counters.OpenTickets,
		TicketsToday:  counters.TicketsToday,
		RevenueToday:  counters.RevenueToday.StringFixed(2),
		RevenueMonth:  counters.RevenueMonth.StringFixed(2),
		TotalClients:  counters.TotalClients,
		TotalStaff:    counters.TotalStaff,
		TotalServices: counters.TotalServices,
		TotalProducts: counters.TotalProducts,
	}, nil
}

// CommissionReport totals commissions per staff member over paid tickets
// closed in the requested period. Dates are YYYY-MM-DD; both default to the
// current month when empty.
func (s *reportService) CommissionReport(ctx context.Context, salonID uuid.UUID, from, to string) (*CommissionReportResponse, error) {
	now := time.Now()
	fromTime := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	toTime := now

	if from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, validationErr("invalid from: expected YYYY-MM-DD")
		}
		fromTime = parsed
	}
	if to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, validationErr("invalid to: expected YYYY-MM-DD")
		}
		// Include the whole end day.
		toTime = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if toTime.Before(fromTime) {
		return nil, validationErr("to must not precede from")
	}

	rows, err := s.reportRepo.CommissionsByStaff(ctx, salonID, fromTime, toTime)
	if err != nil {
		return nil, fmt.Errorf("failed to build commission report: %w", err)
	}

	resp := &CommissionReportResponse{
		From: fromTime.Format("2006-01-02"),
		To:   toTime.Format("2006-01-02"),
		Rows: make([]CommissionReportRow, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, CommissionReportRow{
			StaffID:         row.StaffID.String(),
			StaffName:       row.StaffName,
			ItemCount:       row.ItemCount,
			ServicesTotal:   row.ServicesTotal.StringFixed(2),
			CommissionTotal: row.CommissionTotal.StringFixed(2),
		})
	}
	return resp, nil
}
