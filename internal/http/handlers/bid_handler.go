package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"smartdeals/internal/domain"
	"smartdeals/internal/log"
	"smartdeals/internal/metrics"
	"smartdeals/internal/services"
)

type BidHandler struct {
	Bids    *services.BidService
	Market  *services.MarketplaceService
	Metrics *metrics.Metrics
}

func (h *BidHandler) Create(c *fiber.Ctx) error {
	var in services.NewBid
	if err := parseBody(c, &in); err != nil {
		return err
	}
	b, err := h.Bids.Create(c.UserContext(), in, principal(c))
	if err != nil {
		return err
	}
	h.Metrics.BidCreated()
	log.Audit(c, "bid.create", map[string]any{"bid_id": b.ID, "product_id": b.Product})
	return c.Status(fiber.StatusCreated).JSON(b)
}

func (h *BidHandler) ListByBuyer(c *fiber.Ctx) error {
	bs, err := h.Bids.ListByBuyer(c.UserContext(), c.Query("email"), principal(c))
	if err != nil {
		return err
	}
	return c.JSON(bs)
}

func (h *BidHandler) ListByProduct(c *fiber.Ctx) error {
	bs, err := h.Bids.ListByProduct(c.UserContext(), c.Params("productId"))
	if err != nil {
		return err
	}
	return c.JSON(bs)
}

// SetStatus confirms or rejects a bid. Confirming sells the product and
// purges the competing bids.
func (h *BidHandler) SetStatus(c *fiber.Ctx) error {
	var in statusBody
	if err := parseBody(c, &in); err != nil {
		return err
	}
	to := domain.BidStatus(in.Status)
	tr, err := h.Market.SetBidStatus(c.UserContext(), c.Params("id"), to, principal(c))
	label := string(to)
	if to != domain.BidConfirmed && to != domain.BidRejected {
		label = "invalid"
	}
	h.Metrics.BidTransition(label, outcome(err))
	if err != nil {
		return err
	}
	log.Audit(c, "bid.status", map[string]any{
		"bid_id":     tr.Bid.ID,
		"product_id": tr.Product.ID,
		"status":     tr.Bid.Status,
		"removed":    tr.Removed,
	})
	return c.JSON(tr)
}

func (h *BidHandler) Delete(c *fiber.Ctx) error {
	n, err := h.Bids.Delete(c.UserContext(), c.Params("id"), principal(c))
	if err != nil {
		return err
	}
	log.Audit(c, "bid.delete", map[string]any{"bid_id": c.Params("id")})
	return c.JSON(fiber.Map{"deletedCount": n})
}

func (h *BidHandler) DeleteForProduct(c *fiber.Ctx) error {
	n, err := h.Bids.DeleteAllForProduct(c.UserContext(), c.Params("productId"), principal(c))
	if err != nil {
		return err
	}
	log.Audit(c, "bid.delete_product", map[string]any{"product_id": c.Params("productId"), "deleted": n})
	return c.JSON(fiber.Map{"deletedCount": n})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrBadRequest):
		return "bad_request"
	default:
		return "error"
	}
}
