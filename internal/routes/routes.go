package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/innotter/backend/internal/config"
	"github.com/innotter/backend/internal/handlers"
	"github.com/innotter/backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	pageHandler *handlers.PageHandler,
	postHandler *handlers.PostHandler,
	searchHandler *handlers.SearchHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth endpoints are public and carry a stricter rate limit.
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Everything below requires an authenticated actor.
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.LoadActor(db))

	protected.Post("/auth/logout", authHandler.Logout)

	// Users
	protected.Get("/users", userHandler.List)
	protected.Get("/users/me", userHandler.Me)
	protected.Get("/users/me/liked", userHandler.LikedPosts)
	protected.Get("/users/:id", userHandler.Get)
	protected.Patch("/users/:id", userHandler.Update)
	protected.Put("/users/:id", userHandler.Update)
	protected.Delete("/users/:id", userHandler.Delete)

	protected.Get("/news", userHandler.News)
	protected.Get("/search", searchHandler.Search)

	// Pages
	protected.Get("/pages", pageHandler.List)
	protected.Post("/pages", pageHandler.Create)
	protected.Get("/pages/:id", pageHandler.Get)
	protected.Patch("/pages/:id", pageHandler.Update)
	protected.Put("/pages/:id", pageHandler.Update)
	protected.Delete("/pages/:id", pageHandler.Delete)

	protected.Post("/pages/:id/tags", pageHandler.AddTags)
	protected.Delete("/pages/:id/tags", pageHandler.RemoveTags)

	protected.Post("/pages/:id/subscribe", pageHandler.Subscribe)
	protected.Post("/pages/:id/unsubscribe", pageHandler.Unsubscribe)
	protected.Get("/pages/:id/followers", pageHandler.Followers)
	protected.Get("/pages/:id/requests", pageHandler.FollowRequests)
	protected.Post("/pages/:id/requests/accept", pageHandler.AcceptRequests)
	protected.Post("/pages/:id/requests/reject", pageHandler.RejectRequests)

	// Posts
	protected.Get("/pages/:id/posts", postHandler.ListForPage)
	protected.Post("/pages/:id/posts", postHandler.Create)
	protected.Get("/posts/:id", postHandler.Get)
	protected.Patch("/posts/:id", postHandler.Update)
	protected.Put("/posts/:id", postHandler.Update)
	protected.Delete("/posts/:id", postHandler.Delete)
	protected.Post("/posts/:id/like", postHandler.Like)
	protected.Post("/posts/:id/unlike", postHandler.Unlike)
	protected.Post("/posts/:id/reply", postHandler.Reply)
}
