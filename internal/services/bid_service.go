package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smartdeals/internal/domain"
	"smartdeals/internal/repos"
	"smartdeals/internal/validate"
)

// NewBid is the payload accepted when placing a bid.
type NewBid struct {
	Product      string  `json:"product"`
	BuyerEmail   string  `json:"buyer_email"`
	BuyerName    string  `json:"buyer_name"`
	BuyerImage   string  `json:"buyer_image"`
	BuyerContact string  `json:"buyer_contact"`
	BidPrice     float64 `json:"bid_price"`
}

type BidService struct {
	Bids  *repos.BidRepo
	Prods *repos.ProductRepo
	Now   func() time.Time
}

func NewBidService(bids *repos.BidRepo, prods *repos.ProductRepo) *BidService {
	return &BidService{Bids: bids, Prods: prods, Now: time.Now}
}

func (s *BidService) Create(ctx context.Context, in NewBid, requester string) (domain.Bid, error) {
	if in.BuyerEmail != requester {
		return domain.Bid{}, fmt.Errorf("%w: buyer_email must match the signed-in user", domain.ErrForbidden)
	}
	pid, ok := validate.ID(in.Product)
	if !ok {
		return domain.Bid{}, fmt.Errorf("%w: malformed product id", domain.ErrBadRequest)
	}
	if !validate.Price(in.BidPrice) {
		return domain.Bid{}, fmt.Errorf("%w: bid_price must be positive", domain.ErrBadRequest)
	}
	p, err := s.Prods.Get(ctx, domain.ProductID(pid))
	if err != nil {
		return domain.Bid{}, err
	}
	if err := biddable(p, requester); err != nil {
		return domain.Bid{}, err
	}

	b := domain.Bid{
		ID:           uuid.NewString(),
		Product:      p.ID,
		BuyerEmail:   in.BuyerEmail,
		BuyerName:    in.BuyerName,
		BuyerImage:   in.BuyerImage,
		BuyerContact: in.BuyerContact,
		BidPrice:     in.BidPrice,
		Status:       domain.BidPending,
		CreatedAt:    domain.FormatTime(s.Now()),
	}
	written, err := s.Bids.InsertIfProductPending(context.WithoutCancel(ctx), b)
	if err != nil {
		return domain.Bid{}, err
	}
	if !written {
		// the product was sold or removed after we looked it up
		if p, err = s.Prods.Get(ctx, p.ID); err != nil {
			return domain.Bid{}, err
		}
		if err := biddable(p, requester); err != nil {
			return domain.Bid{}, err
		}
		return domain.Bid{}, fmt.Errorf("%w: product changed while bidding", domain.ErrConflict)
	}
	return b, nil
}

// ListByBuyer returns the bids placed by email. An empty email means the
// requester's own bids.
func (s *BidService) ListByBuyer(ctx context.Context, email, requester string) ([]domain.Bid, error) {
	if email == "" {
		email = requester
	}
	if email != requester {
		return nil, fmt.Errorf("%w: you can only list your own bids", domain.ErrForbidden)
	}
	return s.Bids.ListByBuyer(ctx, email)
}

// ListByProduct returns every bid on a product. Any signed-in user may see
// competing bids.
func (s *BidService) ListByProduct(ctx context.Context, rawProductID string) ([]domain.Bid, error) {
	pid, err := productID(rawProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Prods.Get(ctx, pid); err != nil {
		return nil, err
	}
	return s.Bids.ListByProduct(ctx, pid)
}

func (s *BidService) Get(ctx context.Context, rawID string) (domain.Bid, error) {
	id, err := bidID(rawID)
	if err != nil {
		return domain.Bid{}, err
	}
	return s.Bids.Get(ctx, id)
}

// Delete removes a bid on behalf of its buyer. A bid its product has
// already claimed for a confirmation still in progress cannot be removed.
func (s *BidService) Delete(ctx context.Context, rawID, requester string) (int64, error) {
	b, err := s.Get(ctx, rawID)
	if err != nil {
		return 0, err
	}
	if b.BuyerEmail != requester {
		return 0, fmt.Errorf("%w: only the bidder may delete this bid", domain.ErrForbidden)
	}
	n, err := s.Bids.DeleteUnclaimed(context.WithoutCancel(ctx), b.ID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if _, err := s.Bids.Get(ctx, b.ID); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: bid is being confirmed", domain.ErrConflict)
	}
	return n, nil
}

// DeleteAllForProduct removes every bid on a product owned by requester.
func (s *BidService) DeleteAllForProduct(ctx context.Context, rawProductID, requester string) (int64, error) {
	pid, err := productID(rawProductID)
	if err != nil {
		return 0, err
	}
	p, err := s.Prods.Get(ctx, pid)
	if err != nil {
		return 0, err
	}
	if err := authorizeOwner(p, requester); err != nil {
		return 0, err
	}
	return s.Bids.DeleteByProduct(context.WithoutCancel(ctx), p.ID)
}

func bidID(raw string) (string, error) {
	id, ok := validate.ID(raw)
	if !ok {
		return "", fmt.Errorf("%w: bid", domain.ErrNotFound)
	}
	return id, nil
}

func biddable(p domain.Product, requester string) error {
	if p.Status == domain.ProductSold {
		return fmt.Errorf("%w: product is already sold", domain.ErrBadRequest)
	}
	if p.Email == requester {
		return fmt.Errorf("%w: you cannot bid on your own product", domain.ErrBadRequest)
	}
	return nil
}
