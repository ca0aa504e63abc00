package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/vitrina/internal/config"
	"github.com/example/vitrina/internal/events"
	"github.com/example/vitrina/internal/handlers"
	"github.com/example/vitrina/internal/metrics"
	"github.com/example/vitrina/internal/middleware"
	"github.com/example/vitrina/internal/repository"
	"github.com/example/vitrina/internal/services"
)

// Dependencies are the collaborators shared by all routes.
type Dependencies struct {
	DB        *gorm.DB
	Config    *config.Config
	Metrics   *metrics.Metrics
	Gateway   services.PaymentGateway
	Notifier  services.OrderNotifier
	Publisher events.Publisher
	Repos     services.Repositories
}

// NewDependencies builds the production wiring on top of a gorm connection.
func NewDependencies(db *gorm.DB, cfg *config.Config, m *metrics.Metrics, publisher events.Publisher) Dependencies {
	return Dependencies{
		DB:      db,
		Config:  cfg,
		Metrics: m,
		Gateway: services.NewPaymeClient(services.PaymeConfig{
			BaseURL:     cfg.PaymeBaseURL,
			MerchantID:  cfg.PaymeMerchantID,
			MerchantKey: cfg.PaymeMerchantKey,
			Timeout:     cfg.PaymeTimeout,
		}, m),
		Notifier:  services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat),
		Publisher: publisher,
		Repos: services.Repositories{
			Cards:    repository.NewGormCards(db),
			Products: repository.NewGormProducts(db),
			Orders:   repository.NewGormOrders(db),
			Tx:       repository.NewGormTx(db),
		},
	}
}

// Register wires up all HTTP routes. The returned OrderService must be
// drained on shutdown.
func Register(app *fiber.App, deps Dependencies) *services.OrderService {
	cfg := deps.Config

	cardService := services.NewCardService(deps.Repos.Cards, deps.Gateway)
	orderService := services.NewOrderService(deps.Repos, deps.Gateway, deps.Notifier, deps.Publisher, deps.Metrics, cfg.DefaultLocale)

	authHandler := handlers.NewAuthHandler(deps.DB, cfg)
	catalogHandler := handlers.NewCatalogHandler(deps.DB, cfg.DefaultLocale)
	cardHandler := handlers.NewCardHandler(cardService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", deps.Metrics.Handler())

	api := app.Group("/api", middleware.Locale(cfg.DefaultLocale))
	protected := middleware.AuthMiddleware(cfg.JWTSecret)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/signin", authHandler.Signin)
	auth.Get("/me", protected, authHandler.Me)
	auth.Put("/me", protected, authHandler.UpdateMe)
	auth.Patch("/password", protected, authHandler.UpdatePassword)

	// Catalog routes
	api.Get("/products", catalogHandler.ListProducts)
	api.Get("/products/brands", catalogHandler.ListBrands)
	api.Get("/products/:id", catalogHandler.GetProduct)

	// Storefront content
	api.Get("/banners", catalogHandler.ListBanners)
	api.Get("/partners", catalogHandler.ListPartners)
	api.Get("/advertisements", catalogHandler.ListAdvertisements)
	api.Get("/blogs", catalogHandler.ListBlogs)
	api.Get("/blogs/:id", catalogHandler.GetBlog)

	// Cards
	cards := api.Group("/cards", protected)
	cards.Post("/", cardHandler.Create)
	cards.Get("/", cardHandler.List)
	cards.Post("/:id/verify-code", cardHandler.RequestCode)
	cards.Post("/:id/verify", cardHandler.Verify)

	// Orders
	orders := api.Group("/orders", protected)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:order_id", orderHandler.Get)

	return orderService
}
