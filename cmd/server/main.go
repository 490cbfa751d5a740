package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/database"
	"github.com/flatmate/flatmate-backend/internal/handler"
	"github.com/flatmate/flatmate-backend/internal/queue"
	"github.com/flatmate/flatmate-backend/internal/repository"
	"github.com/flatmate/flatmate-backend/internal/router"
	"github.com/flatmate/flatmate-backend/internal/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.DBName); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient() // nil when Redis is absent

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	listings := repository.NewListingRepo(db)
	bookings := repository.NewBookingRepo(db)

	issuer := token.NewIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())

	router.Register(e, router.Deps{
		Cfg:    cfg,
		Issuer: issuer,
		Users:  users,
		Redis:  rdb,
		Auth:   handler.NewAuthHandler(cfg, issuer, users, sessions),
		Public: handler.NewPublicHandler(listings, users),
		Host:   handler.NewHostHandler(cfg, listings, bookings),
		Book:   handler.NewBookingHandler(bookings, listings),
		Upload: handler.NewUploadHandler(cfg),
		Admin:  handler.NewAdminHandler(users, listings, bookings),
	})

	// Background consumer turns moderation events into an audit log.
	go queue.StartModerationConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
