// cases.go
//
// HTTP handlers for case annotation and deletion inside a run.

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/zeldalab/zelda/internal/services"
	"github.com/zeldalab/zelda/internal/utils"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// CaseHandler handles case routes
type CaseHandler struct {
	DB r.QueryExecutor
}

// UpdateCase handles POST /zelda/runs/:run_name/cases/:case_id/update
// Accepts JSON or form bodies; both bug and comments are required.
// @Summary Annotate a case
// @Description Set the bug and comments fields on one case of a run
// @Tags Cases
// @Accept json
// @Produce json
// @Param run_name path string true "Run name"
// @Param case_id path string true "Case id"
// @Param body body object true "bug and comments"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /runs/{run_name}/cases/{case_id}/update [post]
func (h *CaseHandler) UpdateCase(c *fiber.Ctx) error {
	runName := c.Params("run_name")
	caseID := c.Params("case_id")

	var body struct {
		Bug      *string `json:"bug" form:"bug"`
		Comments *string `json:"comments" form:"comments"`
	}

	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "validation")
	}
	if body.Bug == nil || body.Comments == nil {
		return utils.ErrorResponse(c, "bug and comments are required", fiber.StatusBadRequest, "validation")
	}

	if err := services.AnnotateCase(h.DB, runName, caseID, *body.Bug, *body.Comments); err != nil {
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "case_id": caseID})
}

// DeleteCase handles DELETE /zelda/runs/:run_name/cases/:case_id
// @Summary Delete a case
// @Description Remove one case from a run and decrement its summary counter
// @Tags Cases
// @Produce json
// @Param run_name path string true "Run name"
// @Param case_id path string true "Case id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /runs/{run_name}/cases/{case_id} [delete]
func (h *CaseHandler) DeleteCase(c *fiber.Ctx) error {
	runName := c.Params("run_name")
	caseID := c.Params("case_id")

	if err := services.DeleteCase(h.DB, runName, caseID); err != nil {
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "case_id": caseID})
}
