package routes

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/addresses"
	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/cart"
	"github.com/example/sunik/internal/checkout"
	"github.com/example/sunik/internal/config"
	"github.com/example/sunik/internal/content"
	"github.com/example/sunik/internal/handlers"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/metrics"
	"github.com/example/sunik/internal/middleware"
	"github.com/example/sunik/internal/navigation"
	"github.com/example/sunik/internal/ratelimit"
	"github.com/example/sunik/internal/services"
	"github.com/example/sunik/internal/sitemap"
	"github.com/example/sunik/internal/transactions"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	DB           *gorm.DB
	Config       *config.Config
	Logger       *logger.Logger
	Metrics      *metrics.Store
	Gatherer     prometheus.Gatherer
	Limiter      *ratelimit.Limiter
	Auth         *auth.Service
	Addresses    *addresses.Service
	Cart         *cart.Service
	Checkout     *checkout.Service
	Transactions *transactions.Store
	Content      *content.Store
	WhatsApp     *services.WhatsApp
	Sitemap      *sitemap.Generator
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Auth, d.Config.App.IsProd())
	profileHandler := handlers.NewProfileHandler(d.Auth, d.Addresses, authHandler)
	cartHandler := handlers.NewCartHandler(d.Cart)
	checkoutHandler := handlers.NewCheckoutHandler(d.Checkout, d.Auth)
	transactionHandler := handlers.NewTransactionHandler(d.Transactions, d.WhatsApp, d.Logger)
	contentHandler := handlers.NewContentHandler(d.Content)
	productHandler := handlers.NewProductHandler(d.Content.Products)
	adminHandler := handlers.NewAdminHandler(d.DB)
	navigationHandler := handlers.NewNavigationHandler(navigation.SocialURLs{
		Facebook:  d.Config.Site.FacebookURL,
		Instagram: d.Config.Site.InstagramURL,
		Tiktok:    d.Config.Site.TiktokURL,
		Youtube:   d.Config.Site.YoutubeURL,
	})
	sitemapHandler := handlers.NewSitemapHandler(d.Sitemap, d.Logger)

	app.Get("/sitemap.xml", sitemapHandler.Serve)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		return c.JSON(fiber.Map{"success": true})
	})

	api := app.Group("/api",
		middleware.SecurityHeaders(),
		middleware.RateLimit(d.Limiter, d.Metrics, d.Logger),
		middleware.Session(d.Auth, d.Logger),
	)

	// Auth routes
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/session", authHandler.CreateSession)
	authRoutes.Get("/session", authHandler.GetSession)
	authRoutes.Delete("/session", authHandler.DeleteSession)

	// Public content
	contentHandler.RegisterPublicRoutes(api.Group("/content"))
	api.Get("/navigation/social", navigationHandler.Social)
	api.Get("/navigation/icons", navigationHandler.Icons)

	admin := api.Group("/admin", middleware.RequireAdmin())
	productHandler.RegisterProductRoutes(api.Group("/products"), admin.Group("/products"))

	// Protected routes. Everything registered below this group under /api
	// requires a session.
	user := api.Group("", middleware.RequireUser())

	user.Get("/navigation/profile", navigationHandler.ProfileMenu)

	user.Get("/profile", profileHandler.GetProfile)
	user.Put("/profile", profileHandler.UpdateProfile)
	user.Put("/profile/password", profileHandler.ChangePassword)
	user.Delete("/profile", profileHandler.DeleteAccount)
	user.Get("/profile/addresses", profileHandler.ListAddresses)
	user.Get("/profile/addresses/primary", profileHandler.PrimaryAddress)
	user.Post("/profile/addresses", profileHandler.CreateAddress)
	user.Put("/profile/addresses/:id", profileHandler.UpdateAddress)
	user.Put("/profile/addresses/:id/primary", profileHandler.SetPrimaryAddress)
	user.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)

	user.Get("/cart", cartHandler.Get)
	user.Post("/cart/items", cartHandler.Add)
	user.Put("/cart/items/:productID", cartHandler.UpdateQuantity)
	user.Delete("/cart/items/:productID", cartHandler.Remove)
	user.Delete("/cart", cartHandler.Clear)

	user.Post("/checkout", checkoutHandler.Start)
	user.Get("/checkout/:id", checkoutHandler.Get)
	user.Put("/checkout/:id/address", checkoutHandler.SubmitAddress)
	user.Post("/checkout/:id/back", checkoutHandler.Back)
	user.Put("/checkout/:id/payment-method", checkoutHandler.SelectPaymentMethod)
	user.Get("/checkout/:id/payment-instructions", checkoutHandler.PaymentInstructions)
	user.Put("/checkout/:id/proof", checkoutHandler.AttachProof)
	user.Post("/checkout/:id/proof", checkoutHandler.UploadProof)
	user.Post("/checkout/:id/submit", checkoutHandler.Submit)

	user.Get("/transactions", transactionHandler.ListMine)
	user.Get("/transactions/:id", transactionHandler.Get)
	user.Get("/transactions/:id/whatsapp", transactionHandler.WhatsApp)

	// Admin routes
	admin.Get("/navigation", navigationHandler.DashboardMenu)
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Get("/recent-transactions", adminHandler.RecentTransactions)

	admin.Get("/delivery-stages", transactionHandler.DeliveryStages)
	admin.Get("/transactions", transactionHandler.ListAll)
	admin.Get("/transactions/stream", transactionHandler.Stream)
	admin.Get("/transactions/:id", transactionHandler.Get)
	admin.Patch("/transactions/:id/status", transactionHandler.UpdateStatus)

	contentHandler.RegisterAdminRoutes(admin.Group("/content"))

	if dir := d.Config.App.PublicDir; dir != "" {
		registerFrontend(app, dir, d.Auth)
	}
}

// registerFrontend serves the prebuilt single-page app behind the page guard.
func registerFrontend(app *fiber.App, dir string, verifier middleware.SessionVerifier) {
	app.Use(middleware.PageGuard(verifier))
	app.Static("/", dir)
	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		return c.SendFile(index)
	})
}
