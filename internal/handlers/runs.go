// runs.go
//
// HTTP handlers for run submission, retrieval and deletion.

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/zeldalab/zelda/internal/models"
	"github.com/zeldalab/zelda/internal/services"
	"github.com/zeldalab/zelda/internal/utils"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// RunHandler handles run routes
type RunHandler struct {
	DB r.QueryExecutor
}

// SubmitRun handles PUT /zelda/runs/:run_name
// @Summary Submit a run
// @Description Submit a named batch of test case results for a product
// @Tags Runs
// @Accept json
// @Produce json
// @Param run_name path string true "Run name"
// @Param body body object true "Run payload with product and cases"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /runs/{run_name} [put]
func (h *RunHandler) SubmitRun(c *fiber.Ctx) error {
	runName := c.Params("run_name")

	var payload models.Run
	if err := c.BodyParser(&payload); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "validation")
	}

	name, err := services.SubmitRun(h.DB, runName, payload)
	if err != nil {
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"run_name": name})
}

// GetRun handles GET /zelda/runs/:run_name
// @Summary Get a run
// @Description Get a run document by name
// @Tags Runs
// @Produce json
// @Param run_name path string true "Run name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /runs/{run_name} [get]
func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	runName := c.Params("run_name")

	run, err := services.GetRun(h.DB, runName)
	if err != nil {
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(run)
}

// DeleteRun handles DELETE /zelda/runs/:run_name
// @Summary Delete a run
// @Description Delete a run, its summary, and its product membership
// @Tags Runs
// @Produce json
// @Param run_name path string true "Run name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /runs/{run_name} [delete]
func (h *RunHandler) DeleteRun(c *fiber.Ctx) error {
	runName := c.Params("run_name")

	if err := services.DeleteRun(h.DB, runName); err != nil {
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "run_name": runName})
}
