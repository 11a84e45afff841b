package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"smartdeals/internal/domain"
)

const bidColumns = `
    id, product, buyer_email, buyer_name, buyer_image, buyer_contact, bid_price, status, created_at`

type BidRepo struct{ q sqlx.ExtContext }

func NewBidRepo(q sqlx.ExtContext) *BidRepo { return &BidRepo{q: q} }

// WithTx returns a repo bound to tx.
func (r *BidRepo) WithTx(tx *sqlx.Tx) *BidRepo { return &BidRepo{q: tx} }

// InsertIfProductPending stores b only while its product row exists with
// status pending. Reports whether the row was written.
func (r *BidRepo) InsertIfProductPending(ctx context.Context, b domain.Bid) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  INSERT INTO bids (`+bidColumns+`)
	  SELECT ?, ?, ?, ?, ?, ?, CAST(? AS DOUBLE PRECISION), ?, ?
	  WHERE EXISTS (SELECT 1 FROM products WHERE id = ? AND status = ?)
	`), b.ID, string(b.Product), b.BuyerEmail, b.BuyerName, b.BuyerImage, b.BuyerContact,
		b.BidPrice, string(b.Status), b.CreatedAt,
		string(b.Product), string(domain.ProductPending))
	if err != nil {
		return false, err
	}
	n, err := affected(res)
	return n == 1, err
}

func (r *BidRepo) Get(ctx context.Context, id string) (domain.Bid, error) {
	var b domain.Bid
	err := sqlx.GetContext(ctx, r.q, &b, r.q.Rebind(`
	  SELECT`+bidColumns+`
	  FROM bids
	  WHERE id = ?`), id)
	if err != nil {
		return domain.Bid{}, notFound(err, "bid")
	}
	return b, nil
}

// ListByBuyer returns a buyer's bids, highest price first.
func (r *BidRepo) ListByBuyer(ctx context.Context, email string) ([]domain.Bid, error) {
	out := []domain.Bid{}
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
	  SELECT`+bidColumns+`
	  FROM bids
	  WHERE buyer_email = ?
	  ORDER BY bid_price DESC, created_at ASC`), email)
	return out, err
}

// ListByProduct returns every bid on a product, highest price first.
func (r *BidRepo) ListByProduct(ctx context.Context, productID domain.ProductID) ([]domain.Bid, error) {
	out := []domain.Bid{}
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
	  SELECT`+bidColumns+`
	  FROM bids
	  WHERE product = ?
	  ORDER BY bid_price DESC, created_at ASC`), string(productID))
	return out, err
}

// CompareAndSetStatus changes a bid's status only if it currently holds
// from. Reports whether it applied.
func (r *BidRepo) CompareAndSetStatus(ctx context.Context, id string, from, to domain.BidStatus) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  UPDATE bids SET status = ?
	  WHERE id = ? AND status = ?`), string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := affected(res)
	return n == 1, err
}

// RejectPending rejects a pending bid unless its product has already been
// claimed by that bid.
func (r *BidRepo) RejectPending(ctx context.Context, id string) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  UPDATE bids SET status = ?
	  WHERE id = ? AND status = ?
	    AND NOT EXISTS (SELECT 1 FROM products p WHERE p.id = bids.product AND p.confirmed_bid = bids.id)`),
		string(domain.BidRejected), id, string(domain.BidPending))
	if err != nil {
		return false, err
	}
	n, err := affected(res)
	return n == 1, err
}

// DeleteUnclaimed deletes a bid unless its product has claimed it while it
// is still pending, i.e. a confirmation is in flight.
func (r *BidRepo) DeleteUnclaimed(ctx context.Context, id string) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  DELETE FROM bids
	  WHERE id = ?
	    AND NOT (status = ? AND EXISTS (
	      SELECT 1 FROM products p WHERE p.id = bids.product AND p.confirmed_bid = bids.id))`),
		id, string(domain.BidPending))
	if err != nil {
		return 0, err
	}
	return affected(res)
}

func (r *BidRepo) DeleteByProduct(ctx context.Context, productID domain.ProductID) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM bids WHERE product = ?`), string(productID))
	if err != nil {
		return 0, err
	}
	return affected(res)
}

// DeleteOthers removes every bid on the product except keepID and records
// the removed ids in purged_bids. Run it inside a transaction so both
// statements land together.
func (r *BidRepo) DeleteOthers(ctx context.Context, productID domain.ProductID, keepID string) (int64, error) {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  INSERT INTO purged_bids (id, product)
	  SELECT id, product FROM bids
	  WHERE product = ? AND id <> ?
	  ON CONFLICT (id) DO NOTHING`), string(productID), keepID)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  DELETE FROM bids
	  WHERE product = ? AND id <> ?`), string(productID), keepID)
	if err != nil {
		return 0, err
	}
	return affected(res)
}

// WasPurged reports whether id was removed by a confirmation of a competing
// bid.
func (r *BidRepo) WasPurged(ctx context.Context, id string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, r.q.Rebind(`SELECT COUNT(*) FROM purged_bids WHERE id = ?`), id)
	return n > 0, err
}

// ForgetPurged drops the purge records of a product.
func (r *BidRepo) ForgetPurged(ctx context.Context, productID domain.ProductID) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM purged_bids WHERE product = ?`), string(productID))
	if err != nil {
		return 0, err
	}
	return affected(res)
}
