package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"smartdeals/internal/domain"
)

const productColumns = `
    id, email, status, confirmed_bid, title, category, image, price_min, price_max,
    condition, usage, description, location, seller_name, seller_image, seller_contact, created_at`

type ProductRepo struct{ q sqlx.ExtContext }

func NewProductRepo(q sqlx.ExtContext) *ProductRepo { return &ProductRepo{q: q} }

// WithTx returns a repo bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{q: tx} }

func (r *ProductRepo) Insert(ctx context.Context, p domain.Product) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  INSERT INTO products
	    (`+productColumns+`)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), string(p.ID), p.Email, string(p.Status), p.ConfirmedBid, p.Title, p.Category, p.Image,
		p.PriceMin, p.PriceMax, p.Condition, p.Usage, p.Description, p.Location,
		p.SellerName, p.SellerImage, p.SellerContact, p.CreatedAt)
	return err
}

func (r *ProductRepo) Get(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.q, &p, r.q.Rebind(`
	  SELECT`+productColumns+`
	  FROM products
	  WHERE id = ?
	`), string(id))
	if err != nil {
		return domain.Product{}, notFound(err, "product")
	}
	return p, nil
}

// List returns products newest first, optionally restricted to one seller.
func (r *ProductRepo) List(ctx context.Context, email string) ([]domain.Product, error) {
	where := `1 = 1`
	args := []any{}
	if email != "" {
		where += ` AND email = ?`
		args = append(args, email)
	}
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
	  SELECT`+productColumns+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY created_at DESC`), args...)
	return out, err
}

func (r *ProductRepo) ListByStatus(ctx context.Context, status domain.ProductStatus, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
	  SELECT`+productColumns+`
	  FROM products
	  WHERE status = ?
	  ORDER BY created_at DESC
	  LIMIT ?`), string(status), limit)
	return out, err
}

// UpdateFields replaces the descriptive fields. Identity, owner, status and
// creation time are not part of the statement.
func (r *ProductRepo) UpdateFields(ctx context.Context, id domain.ProductID, f domain.ProductFields) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  UPDATE products SET
	    title = ?, category = ?, image = ?, price_min = ?, price_max = ?, condition = ?,
	    usage = ?, description = ?, location = ?, seller_name = ?, seller_image = ?, seller_contact = ?
	  WHERE id = ?`),
		f.Title, f.Category, f.Image, f.PriceMin, f.PriceMax, f.Condition,
		f.Usage, f.Description, f.Location, f.SellerName, f.SellerImage, f.SellerContact, string(id))
	if err != nil {
		return err
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(sql.ErrNoRows, "product")
	}
	return nil
}

// CompareAndSetStatus moves the product from one status to another only if
// it is still in the expected one. confirmedBid is recorded alongside; pass
// "" when the change is not driven by a bid. Reports whether it applied.
func (r *ProductRepo) CompareAndSetStatus(ctx context.Context, id domain.ProductID, from, to domain.ProductStatus, confirmedBid string) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
	  UPDATE products
	  SET status = ?, confirmed_bid = ?
	  WHERE id = ? AND status = ?`), string(to), confirmedBid, string(id), string(from))
	if err != nil {
		return false, err
	}
	n, err := affected(res)
	return n == 1, err
}

func (r *ProductRepo) Delete(ctx context.Context, id domain.ProductID) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM products WHERE id = ?`), string(id))
	if err != nil {
		return 0, err
	}
	return affected(res)
}
