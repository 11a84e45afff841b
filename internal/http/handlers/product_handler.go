package handlers

import (
	"github.com/gofiber/fiber/v2"

	"smartdeals/internal/domain"
	"smartdeals/internal/log"
	"smartdeals/internal/metrics"
	"smartdeals/internal/services"
)

type ProductHandler struct {
	Products *services.ProductService
	Metrics  *metrics.Metrics
}

type statusBody struct {
	Status string `json:"status"`
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.NewProduct
	if err := parseBody(c, &in); err != nil {
		return err
	}
	p, err := h.Products.Create(c.UserContext(), in, principal(c))
	if err != nil {
		return err
	}
	h.Metrics.ProductCreated()
	log.Audit(c, "product.create", map[string]any{"product_id": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Products.List(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(ps)
}

func (h *ProductHandler) Latest(c *fiber.Ctx) error {
	ps, err := h.Products.ListRecentOpen(c.UserContext(), services.LatestLimit)
	if err != nil {
		return err
	}
	return c.JSON(ps)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Products.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Update replaces the descriptive fields. id, email and status in the body
// are ignored.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var f domain.ProductFields
	if err := parseBody(c, &f); err != nil {
		return err
	}
	p, err := h.Products.Update(c.UserContext(), c.Params("id"), f, principal(c))
	if err != nil {
		return err
	}
	log.Audit(c, "product.update", map[string]any{"product_id": p.ID})
	return c.JSON(p)
}

func (h *ProductHandler) SetStatus(c *fiber.Ctx) error {
	var in statusBody
	if err := parseBody(c, &in); err != nil {
		return err
	}
	p, err := h.Products.SetStatus(c.UserContext(), c.Params("id"), domain.ProductStatus(in.Status), principal(c))
	if err != nil {
		return err
	}
	log.Audit(c, "product.status", map[string]any{"product_id": p.ID, "status": p.Status})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	removed, err := h.Products.Delete(c.UserContext(), c.Params("id"), principal(c))
	if err != nil {
		return err
	}
	log.Audit(c, "product.delete", map[string]any{"product_id": c.Params("id"), "bids_deleted": removed})
	return c.JSON(fiber.Map{"deletedCount": 1, "bidsDeleted": removed})
}
