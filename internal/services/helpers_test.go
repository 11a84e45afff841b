package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"smartdeals/internal/domain"
	"smartdeals/internal/repos"
	"smartdeals/internal/services"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
	carol = "carol@example.com"
	dave  = "dave@example.com"
)

type testEnv struct {
	db       *sqlx.DB
	prodRepo *repos.ProductRepo
	bidRepo  *repos.BidRepo
	products *services.ProductService
	bids     *services.BidService
	market   *services.MarketplaceService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	prodRepo := repos.NewProductRepo(db)
	bidRepo := repos.NewBidRepo(db)
	clock := stepClock()

	products := services.NewProductService(db, prodRepo, bidRepo)
	products.Now = clock
	bids := services.NewBidService(bidRepo, prodRepo)
	bids.Now = clock

	return &testEnv{
		db:       db,
		prodRepo: prodRepo,
		bidRepo:  bidRepo,
		products: products,
		bids:     bids,
		market:   services.NewMarketplaceService(db, bidRepo, prodRepo, zaptest.NewLogger(t)),
	}
}

// stepClock advances one second per call so created_at ordering is stable.
func stepClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func (e *testEnv) listProduct(t *testing.T, seller, title string) domain.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), services.NewProduct{
		Email: seller,
		ProductFields: domain.ProductFields{
			Title:     title,
			Category:  "electronics",
			PriceMin:  50,
			PriceMax:  80,
			Condition: "used",
		},
	}, seller)
	require.NoError(t, err)
	return p
}

func (e *testEnv) placeBid(t *testing.T, p domain.Product, buyer string, price float64) domain.Bid {
	t.Helper()
	b, err := e.bids.Create(context.Background(), services.NewBid{
		Product:    string(p.ID),
		BuyerEmail: buyer,
		BuyerName:  buyer,
		BidPrice:   price,
	}, buyer)
	require.NoError(t, err)
	return b
}
