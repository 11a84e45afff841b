package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"smartdeals/internal/domain"
	"smartdeals/internal/services"
)

func TestProductCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.products.Create(ctx, services.NewProduct{Email: alice}, bob)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.products.Create(ctx, services.NewProduct{
		Email:         alice,
		ProductFields: domain.ProductFields{PriceMin: 90, PriceMax: 10},
	}, alice)
	require.ErrorIs(t, err, domain.ErrBadRequest)

	p := e.listProduct(t, alice, "Laptop")
	require.Equal(t, domain.ProductPending, p.Status)
	require.Empty(t, p.ConfirmedBid)

	got, err := e.products.Get(ctx, string(p.ID))
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestProductGetUnknownOrMalformed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.products.Get(ctx, "not-an-id")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.products.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductListFiltersAndOrdersNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.listProduct(t, alice, "Phone")
	e.listProduct(t, bob, "Bike")
	last := e.listProduct(t, alice, "Camera")

	all, err := e.products.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	mine, err := e.products.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, last.ID, mine[0].ID)
	require.Equal(t, first.ID, mine[1].ID)
}

func TestListRecentOpenSkipsSold(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	var ps []domain.Product
	for i := 0; i < 7; i++ {
		ps = append(ps, e.listProduct(t, alice, fmt.Sprintf("item %d", i)))
	}
	newest := ps[6]
	_, err := e.products.SetStatus(ctx, string(newest.ID), domain.ProductSold, alice)
	require.NoError(t, err)

	open, err := e.products.ListRecentOpen(ctx, services.LatestLimit)
	require.NoError(t, err)
	require.Len(t, open, services.LatestLimit)
	require.Equal(t, ps[5].ID, open[0].ID)
	for _, p := range open {
		require.Equal(t, domain.ProductPending, p.Status)
		require.NotEqual(t, newest.ID, p.ID)
	}
}

func TestProductUpdateOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.listProduct(t, alice, "Desk")

	f := p.ProductFields
	f.Title = "Standing desk"
	f.PriceMax = 120

	_, err := e.products.Update(ctx, string(p.ID), f, bob)
	require.ErrorIs(t, err, domain.ErrForbidden)

	up, err := e.products.Update(ctx, string(p.ID), f, alice)
	require.NoError(t, err)
	require.Equal(t, "Standing desk", up.Title)

	got, err := e.products.Get(ctx, string(p.ID))
	require.NoError(t, err)
	require.Equal(t, "Standing desk", got.Title)
	require.Equal(t, 120.0, got.PriceMax)
	require.Equal(t, alice, got.Email)
	require.Equal(t, p.CreatedAt, got.CreatedAt)
}

func TestProductSetStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.listProduct(t, alice, "Lamp")
	id := string(p.ID)

	_, err := e.products.SetStatus(ctx, id, domain.ProductSold, bob)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.products.SetStatus(ctx, id, "archived", alice)
	require.ErrorIs(t, err, domain.ErrBadRequest)

	same, err := e.products.SetStatus(ctx, id, domain.ProductPending, alice)
	require.NoError(t, err)
	require.Equal(t, domain.ProductPending, same.Status)

	sold, err := e.products.SetStatus(ctx, id, domain.ProductSold, alice)
	require.NoError(t, err)
	require.Equal(t, domain.ProductSold, sold.Status)

	again, err := e.products.SetStatus(ctx, id, domain.ProductSold, alice)
	require.NoError(t, err)
	require.Equal(t, domain.ProductSold, again.Status)

	_, err = e.products.SetStatus(ctx, id, domain.ProductPending, alice)
	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestProductDeleteCascadesBids(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.listProduct(t, alice, "Guitar")
	other := e.listProduct(t, alice, "Amp")
	e.placeBid(t, p, bob, 60)
	e.placeBid(t, p, carol, 70)
	kept := e.placeBid(t, other, bob, 55)

	_, err := e.products.Delete(ctx, string(p.ID), bob)
	require.ErrorIs(t, err, domain.ErrForbidden)

	removed, err := e.products.Delete(ctx, string(p.ID), alice)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	_, err = e.products.Get(ctx, string(p.ID))
	require.ErrorIs(t, err, domain.ErrNotFound)
	left, err := e.bidRepo.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Empty(t, left)

	_, err = e.bidRepo.Get(ctx, kept.ID)
	require.NoError(t, err)

	_, err = e.products.Delete(ctx, string(p.ID), alice)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
