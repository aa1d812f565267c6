// products.go
//
// HTTP handlers for product listing and per-product summaries.

package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/zeldalab/zelda/internal/services"
	"github.com/zeldalab/zelda/internal/types"
	"github.com/zeldalab/zelda/internal/utils"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// ProductHandler handles product routes
type ProductHandler struct {
	DB r.QueryExecutor
}

// ListProducts handles GET /zelda/products
// @Summary List products
// @Description List all product documents
// @Tags Products
// @Produce json
// @Success 200 {array} models.Product
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	products, err := services.ListProducts(h.DB)
	if err != nil {
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(products)
}

// GetProduct handles GET /zelda/products/:product_name
// URLs cannot include spaces; use minus or underscore, the name is
// normalized before lookup.
// @Summary Get a product
// @Description Get a product document by raw name (normalized server-side)
// @Tags Products
// @Produce json
// @Param product_name path string true "Product name (use - or _ for spaces)"
// @Success 200 {object} models.Product
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /products/{product_name} [get]
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	productName := c.Params("product_name")

	product, err := services.GetProduct(h.DB, productName)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return utils.NotFoundResponse(c, fmt.Sprintf("Product '%s' not found", productName))
		}
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

// ListSummaries handles GET /zelda/products/:product_name/runs/summaries
// @Summary List run summaries for a product
// @Description List runssum documents for the product (name normalized server-side)
// @Tags Products
// @Produce json
// @Param product_name path string true "Product name (use - or _ for spaces)"
// @Success 200 {array} models.RunSummary
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /products/{product_name}/runs/summaries [get]
func (h *ProductHandler) ListSummaries(c *fiber.Ctx) error {
	productName := c.Params("product_name")

	summaries, err := services.ListSummariesForProduct(h.DB, productName)
	if err != nil {
		return utils.RegistryErrorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(summaries)
}
