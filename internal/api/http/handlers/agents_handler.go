package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flowpay/helpdesk/internal/api/dto"
	"github.com/flowpay/helpdesk/internal/service"
	apperrors "github.com/flowpay/helpdesk/pkg/util"
)

// AgentsHandler manages agent directory endpoints.
type AgentsHandler struct {
	service *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{service: agentService}
}

// ListAgents GET /agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agents})
}

// GetAgent GET /agents/:id.
func (h *AgentsHandler) GetAgent(c *fiber.Ctx) error {
	agent, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agent})
}

// UpdateAgentStatus PATCH /agents/:id/status.
func (h *AgentsHandler) UpdateAgentStatus(c *fiber.Ctx) error {
	var req dto.UpdateAgentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IsOnline == nil {
		return apperrors.NewValidationError("isOnline required", nil)
	}

	agent, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), *req.IsOnline)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agent})
}
