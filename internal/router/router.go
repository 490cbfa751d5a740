// Package router wires the handlers onto the Echo instance. Routes are
// grouped by audience: public browse, auth, host dashboard, bookings
// and the admin panel, each with the middleware the group needs.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/handler"
	"github.com/flatmate/flatmate-backend/internal/middleware"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/token"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg    config.Config
	Issuer *token.Issuer
	Users  middleware.UserLoader
	Redis  *redis.Client // nil disables rate limiting and caching

	Auth   *handler.AuthHandler
	Public *handler.PublicHandler
	Host   *handler.HostHandler
	Book   *handler.BookingHandler
	Upload *handler.UploadHandler
	Admin  *handler.AdminHandler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.Static("/static/uploads", d.Cfg.UploadDir)

	api := e.Group("/api")
	api.GET("/compat/ping", handler.CompatPing)

	authMW := middleware.Authenticate(d.Issuer, d.Users)
	optionalMW := middleware.OptionalAuthenticate(d.Issuer, d.Users)

	// Brute-force protection on the credential endpoints.
	auth := api.Group("/auth", middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis))
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)

	api.GET("/users/me", d.Auth.Me, authMW)
	api.GET("/notifications", handler.Notifications, authMW)

	// Public browse; the search listing is cached in Redis.
	api.GET("/cities", d.Public.Cities)
	api.GET("/listings", d.Public.List, middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis))
	api.GET("/listings/:id", d.Public.Detail, optionalMW)

	host := api.Group("/host", authMW)
	host.GET("/properties", d.Host.MyListings)
	host.POST("/properties", d.Host.Create)
	host.PUT("/properties/:id", d.Host.Update)
	host.DELETE("/properties/:id", d.Host.Delete)
	host.GET("/bookings", d.Host.MyBookings)

	bookings := api.Group("/bookings", authMW)
	bookings.POST("", d.Book.Create)
	bookings.GET("", d.Book.Mine)

	upload := api.Group("/upload", authMW)
	upload.POST("/image", d.Upload.Image)

	admin := api.Group("/admin", authMW, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/stats", d.Admin.Stats)
	admin.GET("/users", d.Admin.ListUsers)
	admin.PUT("/users/:id/role", d.Admin.UpdateRole)
	admin.GET("/properties", d.Admin.AllListings)
	admin.GET("/properties/pending", d.Admin.PendingListings)
	admin.POST("/properties/:id/approve", d.Admin.Approve)
	admin.POST("/properties/:id/reject", d.Admin.Reject)
	admin.DELETE("/properties/:id", d.Admin.DeleteListing)
}
