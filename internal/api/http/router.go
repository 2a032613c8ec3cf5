package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowpay/helpdesk/internal/api/http/handlers"
	"github.com/flowpay/helpdesk/internal/api/ws"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketsHandler
	Agents    *handlers.AgentsHandler
	Teams     *handlers.TeamsHandler
	Dashboard *handlers.DashboardHandler
	Hub       *ws.Hub
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/complete", cfg.Tickets.CompleteTicket)

	agents := app.Group("/agents")
	agents.Get("/", cfg.Agents.ListAgents)
	agents.Get("/:id", cfg.Agents.GetAgent)
	agents.Patch("/:id/status", cfg.Agents.UpdateAgentStatus)

	teams := app.Group("/teams")
	teams.Get("/", cfg.Teams.ListTeams)
	teams.Get("/:id", cfg.Teams.GetTeam)

	dashboard := app.Group("/dashboard")
	dashboard.Get("/stats", cfg.Dashboard.GetStats)
	dashboard.Get("/teams", cfg.Dashboard.GetTeamsSummary)

	app.Use("/ws", cfg.Hub.Upgrade)
	app.Get("/ws", cfg.Hub.Handler())
}
