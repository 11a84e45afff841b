package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "smartdeals/internal/log"
)

const bodyLimit = 1 << 20 // 1 MiB

// NewApp builds the fiber app with the middleware stack and every route.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      d.Config.ServiceName,
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
	})
	app.Use(requestid.New())
	app.Use(d.Metrics.Middleware())
	app.Use(applog.AccessLog())
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	if d.Config.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        d.Config.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz" || c.Path() == "/metrics"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.limited", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "too many requests"})
			},
		}))
	}
	Mount(app, d)
	return app
}

// Mount registers the routes. Literal segments are registered before the
// ":id" routes they would otherwise be shadowed by.
func Mount(app *fiber.App, d *Deps) {
	auth := RequireBearer(d.Auth)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Smart server is running!")
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := d.DB.PingContext(c.UserContext()); err != nil {
			applog.Error(c, "health.db", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", d.Metrics.Handler())

	app.Post("/auth/register", d.AuthHandler.Register)
	app.Post("/auth/token", d.AuthHandler.Token)
	app.Delete("/auth/token", auth, d.AuthHandler.Logout)

	ph := d.ProductHandler
	app.Get("/latest-products", ph.Latest)
	app.Get("/products", ph.List)
	app.Post("/products", auth, ph.Create)
	app.Get("/products/bids/:productId", auth, d.BidHandler.ListByProduct)
	app.Patch("/products/status/:id", auth, ph.SetStatus)
	app.Get("/products/:id", ph.Get)
	app.Put("/products/:id", auth, ph.Update)
	app.Delete("/products/:id", auth, ph.Delete)

	bh := d.BidHandler
	app.Post("/bids", auth, bh.Create)
	app.Get("/bids", auth, bh.ListByBuyer)
	app.Patch("/bids/status/:id", auth, bh.SetStatus)
	app.Delete("/bids/product/:productId", auth, bh.DeleteForProduct)
	app.Delete("/bids/:id", auth, bh.Delete)
}
