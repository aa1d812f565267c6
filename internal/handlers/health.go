package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/zeldalab/zelda/internal/config"
	"github.com/zeldalab/zelda/internal/services"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// HealthHandler handles the health probe route
type HealthHandler struct {
	Cfg *config.Config
	DB  r.QueryExecutor
}

// Healthz handles GET /healthz
// @Summary Health check
// @Description Report service and document store health
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /healthz [get]
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Cfg, h.DB)

	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
