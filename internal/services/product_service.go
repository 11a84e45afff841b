package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"smartdeals/internal/domain"
	"smartdeals/internal/repos"
	"smartdeals/internal/validate"
)

// LatestLimit caps the "latest products" listing.
const LatestLimit = 5

// NewProduct is the payload accepted when listing an item.
type NewProduct struct {
	Email string `json:"email"`
	domain.ProductFields
}

// ProductService owns product records: creation, owner-only mutation and
// the cascading delete of their bids.
type ProductService struct {
	DB    *sqlx.DB
	Prods *repos.ProductRepo
	Bids  *repos.BidRepo
	Now   func() time.Time
}

func NewProductService(db *sqlx.DB, prods *repos.ProductRepo, bids *repos.BidRepo) *ProductService {
	return &ProductService{DB: db, Prods: prods, Bids: bids, Now: time.Now}
}

func (s *ProductService) Create(ctx context.Context, in NewProduct, requester string) (domain.Product, error) {
	if in.Email != requester {
		return domain.Product{}, fmt.Errorf("%w: product email must match the signed-in user", domain.ErrForbidden)
	}
	if _, ok := validate.Email(in.Email); !ok {
		return domain.Product{}, fmt.Errorf("%w: invalid email", domain.ErrBadRequest)
	}
	if !validate.PriceRange(in.PriceMin, in.PriceMax) {
		return domain.Product{}, fmt.Errorf("%w: invalid price range", domain.ErrBadRequest)
	}
	p := domain.Product{
		ID:            domain.ProductID(uuid.NewString()),
		Email:         in.Email,
		Status:        domain.ProductPending,
		CreatedAt:     domain.FormatTime(s.Now()),
		ProductFields: in.ProductFields,
	}
	if err := s.Prods.Insert(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, rawID string) (domain.Product, error) {
	id, err := productID(rawID)
	if err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, id)
}

// List returns every product, or only those of seller when it is non-empty.
func (s *ProductService) List(ctx context.Context, seller string) ([]domain.Product, error) {
	return s.Prods.List(ctx, seller)
}

// ListRecentOpen returns the newest pending products, at most limit of them.
func (s *ProductService) ListRecentOpen(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > LatestLimit {
		limit = LatestLimit
	}
	return s.Prods.ListByStatus(ctx, domain.ProductPending, limit)
}

// Update replaces the descriptive fields of an owned product.
func (s *ProductService) Update(ctx context.Context, rawID string, f domain.ProductFields, requester string) (domain.Product, error) {
	p, err := s.Get(ctx, rawID)
	if err != nil {
		return domain.Product{}, err
	}
	if err := authorizeOwner(p, requester); err != nil {
		return domain.Product{}, err
	}
	if !validate.PriceRange(f.PriceMin, f.PriceMax) {
		return domain.Product{}, fmt.Errorf("%w: invalid price range", domain.ErrBadRequest)
	}
	if err := s.Prods.UpdateFields(ctx, p.ID, f); err != nil {
		return domain.Product{}, err
	}
	p.ProductFields = f
	return p, nil
}

// SetStatus moves an owned product between pending and sold. Sold is
// terminal; the pending->sold step is a compare-and-set.
func (s *ProductService) SetStatus(ctx context.Context, rawID string, status domain.ProductStatus, requester string) (domain.Product, error) {
	p, err := s.Get(ctx, rawID)
	if err != nil {
		return domain.Product{}, err
	}
	if err := authorizeOwner(p, requester); err != nil {
		return domain.Product{}, err
	}
	if !status.Valid() {
		return domain.Product{}, fmt.Errorf("%w: status must be pending or sold", domain.ErrBadRequest)
	}
	if status == p.Status {
		return p, nil
	}
	if p.Status == domain.ProductSold {
		return domain.Product{}, fmt.Errorf("%w: a sold product cannot be reopened", domain.ErrBadRequest)
	}
	ok, err := s.Prods.CompareAndSetStatus(context.WithoutCancel(ctx), p.ID, domain.ProductPending, domain.ProductSold, "")
	if err != nil {
		return domain.Product{}, err
	}
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product status changed concurrently", domain.ErrConflict)
	}
	p.Status = domain.ProductSold
	return p, nil
}

// Delete removes an owned product together with every bid on it, in one
// store transaction. It returns the number of bids removed.
func (s *ProductService) Delete(ctx context.Context, rawID string, requester string) (int64, error) {
	p, err := s.Get(ctx, rawID)
	if err != nil {
		return 0, err
	}
	if err := authorizeOwner(p, requester); err != nil {
		return 0, err
	}
	ctx = context.WithoutCancel(ctx)
	var removed int64
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		bids := s.Bids.WithTx(tx)
		n, err := bids.DeleteByProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		removed = n
		if _, err := bids.ForgetPurged(ctx, p.ID); err != nil {
			return err
		}
		gone, err := s.Prods.WithTx(tx).Delete(ctx, p.ID)
		if err != nil {
			return err
		}
		if gone == 0 {
			return fmt.Errorf("%w: product", domain.ErrNotFound)
		}
		return nil
	})
	return removed, err
}

// productID parses a caller-supplied product reference. Malformed ids are
// reported as missing.
func productID(raw string) (domain.ProductID, error) {
	id, ok := validate.ID(raw)
	if !ok {
		return "", fmt.Errorf("%w: product", domain.ErrNotFound)
	}
	return domain.ProductID(id), nil
}

func authorizeOwner(p domain.Product, requester string) error {
	if requester == "" || p.Email != requester {
		return fmt.Errorf("%w: only the seller may do this", domain.ErrForbidden)
	}
	return nil
}
