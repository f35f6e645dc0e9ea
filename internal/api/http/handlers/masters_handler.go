package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/monitor-report/internal/api/dto"
	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/service"
)

// MastersHandler exposes master data management.
type MastersHandler struct {
	masters *service.MasterService
}

// NewMastersHandler constructs handler.
func NewMastersHandler(masters *service.MasterService) *MastersHandler {
	return &MastersHandler{masters: masters}
}

// ListServers handles GET /api/masters/servers. ?active=true hides inactive servers.
func (h *MastersHandler) ListServers(c *fiber.Ctx) error {
	servers, err := h.masters.ListServers(c.UserContext(), auth.IdentityFromContext(c), c.QueryBool("active", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServerResponses(servers)})
}

// CreateServer handles POST /api/masters/servers.
func (h *MastersHandler) CreateServer(c *fiber.Ctx) error {
	var req dto.ServerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	server, err := h.masters.CreateServer(c.UserContext(), auth.IdentityFromContext(c), serverInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewServerResponse(server)})
}

// UpdateServer handles PUT /api/masters/servers/:id.
func (h *MastersHandler) UpdateServer(c *fiber.Ctx) error {
	id, err := pathID(c, "server")
	if err != nil {
		return err
	}
	var req dto.ServerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	server, err := h.masters.UpdateServer(c.UserContext(), auth.IdentityFromContext(c), id, serverInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServerResponse(server)})
}

// DeleteServer handles DELETE /api/masters/servers/:id.
func (h *MastersHandler) DeleteServer(c *fiber.Ctx) error {
	id, err := pathID(c, "server")
	if err != nil {
		return err
	}
	if err := h.masters.DeleteServer(c.UserContext(), auth.IdentityFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListUsers handles GET /api/masters/users.
func (h *MastersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.masters.ListUsers(c.UserContext(), auth.IdentityFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// GetUser handles GET /api/masters/users/:id.
func (h *MastersHandler) GetUser(c *fiber.Ctx) error {
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.masters.GetUser(c.UserContext(), auth.IdentityFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// CreateUser handles POST /api/masters/users.
func (h *MastersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.masters.CreateUser(c.UserContext(), auth.IdentityFromContext(c), userInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateUser handles PUT /api/masters/users/:id.
func (h *MastersHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.masters.UpdateUser(c.UserContext(), auth.IdentityFromContext(c), id, userInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DeleteUser handles DELETE /api/masters/users/:id.
func (h *MastersHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	if err := h.masters.DeleteUser(c.UserContext(), auth.IdentityFromContext(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func serverInput(req dto.ServerRequest) service.ServerInput {
	return service.ServerInput{Name: req.ServerName, Description: req.Description, IsActive: req.IsActive}
}

func userInput(req dto.UserRequest) service.UserInput {
	return service.UserInput{Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role}
}
