// Package server assembles the fiber application from its stores.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/wichananm65/mobcommerce-backend/internal/auth"
	"github.com/wichananm65/mobcommerce-backend/internal/cart"
	"github.com/wichananm65/mobcommerce-backend/internal/config"
	"github.com/wichananm65/mobcommerce-backend/internal/middleware"
	"github.com/wichananm65/mobcommerce-backend/internal/response"
	"github.com/wichananm65/mobcommerce-backend/internal/token"
	"github.com/wichananm65/mobcommerce-backend/internal/user"
)

// Deps are the storage backends selected by main.
type Deps struct {
	Users       user.Repository
	Carts       cart.Repository
	Resets      auth.ResetRepository
	RateCounter middleware.Counter
	Hasher      user.Hasher
	Metrics     *middleware.Metrics
	Log         *zap.Logger
}

// protectedPrefixes are gated by the bearer check. Anything else that
// reaches the gate falls through to the 404 handler.
var protectedPrefixes = []string{"/api/auth/profile", "/api/auth/users", "/api/cart"}

// New builds the app with every route registered.
func New(cfg config.Config, d Deps) *fiber.App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Hasher == nil {
		d.Hasher = user.BcryptHasher{}
	}
	if d.RateCounter == nil {
		d.RateCounter = middleware.NewMemoryCounter()
	}
	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics("mobcommerce")
	}

	app := fiber.New(fiber.Config{
		AppName:      "MobCommerce API",
		ErrorHandler: response.ErrorHandler(d.Log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	setupCORS(app)
	app.Use(middleware.RequestLog(d.Log))
	app.Use(d.Metrics.Middleware())
	app.Use(recover.New())

	app.Get("/health", health)
	app.Get("/metrics", d.Metrics.Handler())

	issuer := token.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTExpiresIn)
	store := user.NewStore(d.Users, d.Hasher)
	authService := auth.NewService(store, issuer, d.Resets, d.Log.Named("auth"), auth.Options{
		ResetTokenTTL:    cfg.ResetTokenTTL,
		ExposeResetToken: cfg.ExposeResetToken,
		AdminEmails:      cfg.AdminEmails,
	})
	limiter := middleware.RateLimit(d.RateCounter, cfg.AuthRateLimit, cfg.AuthRateWindow, d.Log)
	authHandler := auth.NewHandler(authService, limiter)
	cartHandler := cart.NewHandler(cart.NewService(d.Carts))

	authHandler.RegisterPublicRoutes(app)

	app.Use(middleware.RequireAuth(issuer, protectedPrefixes...))
	authHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)

	app.Use(response.NotFound)
	return app
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "MobCommerce API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
