package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"smartdeals/internal/domain"
	"smartdeals/internal/repos"
)

// Transition is the outcome of a bid status change.
type Transition struct {
	Bid     domain.Bid     `json:"bid"`
	Product domain.Product `json:"product"`
	// Removed counts competing bids purged by a confirmation.
	Removed int64 `json:"removed"`
}

// MarketplaceService coordinates bid confirmation across products and bids.
//
// Confirming bid B of product P runs three dependent writes without a
// cross-document transaction:
//
//  1. claim P: status pending->sold and confirmed_bid=B, compare-and-set
//  2. mark B confirmed
//  3. delete every other bid of P
//
// The claim is the only serialization point; a racer that loses it gets
// ErrConflict, also when step 3 already removed its bid. If the process
// stops after step 1, P records B as its buyer, so repeating the
// confirmation resumes at step 2.
type MarketplaceService struct {
	DB     *sqlx.DB
	Bids   *repos.BidRepo
	Prods  *repos.ProductRepo
	Logger *zap.Logger
}

func NewMarketplaceService(db *sqlx.DB, bids *repos.BidRepo, prods *repos.ProductRepo, logger *zap.Logger) *MarketplaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketplaceService{DB: db, Bids: bids, Prods: prods, Logger: logger}
}

// SetBidStatus confirms or rejects a bid on behalf of the product's seller.
func (s *MarketplaceService) SetBidStatus(ctx context.Context, rawBidID string, status domain.BidStatus, requester string) (Transition, error) {
	id, err := bidID(rawBidID)
	if err != nil {
		return Transition{}, err
	}
	bid, err := s.Bids.Get(ctx, id)
	if err != nil {
		return Transition{}, s.missingBid(ctx, id, err)
	}
	p, err := s.Prods.Get(ctx, bid.Product)
	if err != nil {
		return Transition{}, err
	}
	if err := authorizeOwner(p, requester); err != nil {
		return Transition{}, err
	}

	// writes already started must finish even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	switch status {
	case domain.BidRejected:
		return s.reject(ctx, bid, p)
	case domain.BidConfirmed:
		return s.confirm(ctx, bid, p)
	default:
		return Transition{}, fmt.Errorf("%w: status must be confirmed or rejected", domain.ErrBadRequest)
	}
}

func (s *MarketplaceService) reject(ctx context.Context, bid domain.Bid, p domain.Product) (Transition, error) {
	switch bid.Status {
	case domain.BidRejected:
		return Transition{Bid: bid, Product: p}, nil
	case domain.BidConfirmed:
		return Transition{}, fmt.Errorf("%w: bid is already confirmed", domain.ErrConflict)
	}
	if p.ConfirmedBid == bid.ID {
		return Transition{}, fmt.Errorf("%w: bid is being confirmed", domain.ErrConflict)
	}
	ok, err := s.Bids.RejectPending(ctx, bid.ID)
	if err != nil {
		return Transition{}, err
	}
	if !ok {
		cur, err := s.Bids.Get(ctx, bid.ID)
		if err != nil {
			return Transition{}, err
		}
		if cur.Status != domain.BidRejected {
			return Transition{}, fmt.Errorf("%w: bid changed concurrently", domain.ErrConflict)
		}
	}
	bid.Status = domain.BidRejected
	return Transition{Bid: bid, Product: p}, nil
}

func (s *MarketplaceService) confirm(ctx context.Context, bid domain.Bid, p domain.Product) (Transition, error) {
	log := s.Logger.With(zap.String("bid_id", bid.ID), zap.String("product_id", string(p.ID)))
	if bid.Status == domain.BidRejected {
		return Transition{}, fmt.Errorf("%w: bid was rejected", domain.ErrConflict)
	}

	claimed, err := s.Prods.CompareAndSetStatus(ctx, p.ID, domain.ProductPending, domain.ProductSold, bid.ID)
	if err != nil {
		return Transition{}, err
	}
	if !claimed {
		cur, err := s.Prods.Get(ctx, p.ID)
		if err != nil {
			return Transition{}, err
		}
		if cur.Status != domain.ProductSold || cur.ConfirmedBid != bid.ID {
			log.Info("bid.confirm.lost", zap.String("confirmed_bid", cur.ConfirmedBid))
			return Transition{}, fmt.Errorf("%w: product is already sold", domain.ErrConflict)
		}
		if bid.Status != domain.BidConfirmed {
			log.Warn("bid.confirm.resume")
		}
	}
	p.Status = domain.ProductSold
	p.ConfirmedBid = bid.ID

	if bid.Status != domain.BidConfirmed {
		ok, err := s.Bids.CompareAndSetStatus(ctx, bid.ID, domain.BidPending, domain.BidConfirmed)
		if err != nil {
			return Transition{}, err
		}
		if !ok {
			cur, err := s.Bids.Get(ctx, bid.ID)
			if err != nil {
				return Transition{}, err
			}
			if cur.Status != domain.BidConfirmed {
				return Transition{}, fmt.Errorf("%w: bid changed concurrently", domain.ErrConflict)
			}
		}
		bid.Status = domain.BidConfirmed
	}

	var removed int64
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		n, err := s.Bids.WithTx(tx).DeleteOthers(ctx, p.ID, bid.ID)
		removed = n
		return err
	})
	if err != nil {
		return Transition{}, err
	}
	log.Info("bid.confirm.done", zap.Int64("removed", removed))
	return Transition{Bid: bid, Product: p, Removed: removed}, nil
}

// missingBid turns the lookup failure of a bid removed by a competing
// confirmation into ErrConflict.
func (s *MarketplaceService) missingBid(ctx context.Context, id string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	purged, perr := s.Bids.WasPurged(ctx, id)
	if perr != nil {
		return perr
	}
	if purged {
		return fmt.Errorf("%w: product was sold to another bid", domain.ErrConflict)
	}
	return err
}
