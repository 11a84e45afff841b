package handlers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"smartdeals/internal/config"
	"smartdeals/internal/metrics"
	"smartdeals/internal/repos"
	"smartdeals/internal/services"
)

type Deps struct {
	DB      *sqlx.DB
	Config  config.Config
	Metrics *metrics.Metrics
	Auth    *services.AuthService

	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	BidHandler     *BidHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, logger *zap.Logger, m *metrics.Metrics) *Deps {
	prodRepo := repos.NewProductRepo(db)
	bidRepo := repos.NewBidRepo(db)
	userRepo := repos.NewUserRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.TokenTTL)
	prodSvc := services.NewProductService(db, prodRepo, bidRepo)
	bidSvc := services.NewBidService(bidRepo, prodRepo)
	marketSvc := services.NewMarketplaceService(db, bidRepo, prodRepo, logger.Named("marketplace"))

	return &Deps{
		DB:             db,
		Config:         cfg,
		Metrics:        m,
		Auth:           authSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc},
		ProductHandler: &ProductHandler{Products: prodSvc, Metrics: m},
		BidHandler:     &BidHandler{Bids: bidSvc, Market: marketSvc, Metrics: m},
	}
}
