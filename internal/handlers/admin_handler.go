package handlers

import (
	"net/http"
	"strconv"

	"github.com/devlink/backend/internal/repositories"
	"github.com/devlink/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AdminHandler exposes the relationship consistency tooling to operators
type AdminHandler struct {
	auditService    *services.AuditService
	auditRepository repositories.AuditRecordRepository
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(auditService *services.AuditService, auditRepo repositories.AuditRecordRepository) *AdminHandler {
	return &AdminHandler{
		auditService:    auditService,
		auditRepository: auditRepo,
	}
}

// RegisterAdminRoutes registers admin-only routes
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/relationships/:id/audit", h.AuditUser)
	g.GET("/relationships/:id/audits", h.AuditHistory)
	g.GET("/relationships/audits", h.RecentAudits)
}

// AuditUser checks and repairs the follow relationships of one user and
// returns the diagnostic report
func (h *AdminHandler) AuditUser(c echo.Context) error {
	report, err := h.auditService.AuditUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return relationshipHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": report})
}

// AuditHistory returns the persisted audit runs for one user, newest first
func (h *AdminHandler) AuditHistory(c echo.Context) error {
	if h.auditRepository == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Audit persistence is not configured")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	records, total, err := h.auditRepository.GetByUserID(c.Param("id"), page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"records": records,
		"total":   total,
		"page":    page,
		"limit":   limit,
	}})
}

// RecentAudits returns the most recent persisted audit runs
func (h *AdminHandler) RecentAudits(c echo.Context) error {
	if h.auditRepository == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Audit persistence is not configured")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	records, err := h.auditRepository.GetRecent(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": records})
}
