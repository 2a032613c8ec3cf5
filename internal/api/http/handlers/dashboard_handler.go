package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowpay/helpdesk/internal/service"
)

// DashboardHandler exposes read-only aggregate endpoints.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// GetStats GET /dashboard/stats.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// GetTeamsSummary GET /dashboard/teams.
func (h *DashboardHandler) GetTeamsSummary(c *fiber.Ctx) error {
	summaries, err := h.service.TeamsSummary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries})
}
