package handler

import (
	"net/http"

	"salon-backend/internal/middleware"
	"salon-backend/internal/model"
	"salon-backend/internal/service"
	"salon-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/commissions", h.Commissions)
	}
}

// Dashboard returns the landing-page counters
// @Summary      Dashboard counters
// @Description  Open tickets, today's and this month's revenue, and master data counts
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}

	dashboard, err := h.reportService.Dashboard(c.Request.Context(), salonID)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}

// Commissions returns per-staff commission totals for a period
// @Summary      Commission report
// @Description  Sums commission values of paid tickets closed in the period, grouped by staff
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "Period start (YYYY-MM-DD, defaults to month start)"
// @Param        to    query     string  false  "Period end (YYYY-MM-DD, defaults to today)"
// @Success      200   {object}  response.Response{data=service.CommissionReportResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/reports/commissions [get]
func (h *ReportHandler) Commissions(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}

	report, err := h.reportService.CommissionReport(c.Request.Context(), salonID, c.Query("from"), c.Query("to"))
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
