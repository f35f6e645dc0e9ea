package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/monitor-report/internal/persistence"
	apperrors "github.com/spec-kit/monitor-report/pkg/util"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name   string
	pinger Pinger
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        []dependency
}

// NewHealthHandler probes Postgres, and Redis only when it backs the token
// denylist; pass a nil redis otherwise.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	h := &HealthHandler{serviceName: serviceName, version: version}
	h.deps = append(h.deps, dependency{"postgres", postgres})
	if redis != nil {
		h.deps = append(h.deps, dependency{"redis", redis})
	}
	return h
}

// Live reports that the process is serving.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready answers 503 while any dependency fails its ping.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	status := make(map[string]any, len(h.deps))
	ready := true
	for _, dep := range h.deps {
		if err := dep.pinger.Ping(ctx); err != nil {
			status[dep.name] = "unavailable"
			ready = false
			continue
		}
		status[dep.name] = "ok"
	}

	if !ready {
		unavailable := apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable", http.StatusServiceUnavailable, status)
		return c.Status(unavailable.HTTPStatus).JSON(unavailable.Body())
	}
	return c.JSON(fiber.Map{"status": "ready", "version": h.version, "dependencies": status})
}
