package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pg-rental-management/internal/config"
	"github.com/iliyamo/pg-rental-management/internal/database"
	"github.com/iliyamo/pg-rental-management/internal/handler"
	"github.com/iliyamo/pg-rental-management/internal/mailer"
	"github.com/iliyamo/pg-rental-management/internal/middleware"
	"github.com/iliyamo/pg-rental-management/internal/queue"
	"github.com/iliyamo/pg-rental-management/internal/repository"
	"github.com/iliyamo/pg-rental-management/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	// nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	pgs := repository.NewPgRepo(db)
	rooms := repository.NewRoomRepo(db)
	visits := repository.NewVisitRequestRepo(db)
	onboardings := repository.NewOnboardingRequestRepo(db)
	tenants := repository.NewTenantRepo(db)
	notifs := repository.NewNotificationRepo(db)

	auth := handler.NewAuthHandler(cfg, users, tokens)
	owner := handler.NewOwnerHandler(cfg, pgs, rooms, visits, onboardings, tenants, users, notifs, mailer.New())
	tenant := handler.NewTenantHandler(pgs, rooms, visits, onboardings)
	public := handler.NewPublicHandler(pgs, rooms)
	notifH := handler.NewNotificationHandler(notifs)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterPublicRoutes(e, auth, public, notifH, cfg, rdb)
	router.RegisterOwnerRoutes(e, owner, cfg)
	router.RegisterTenantRoutes(e, tenant, cfg)

	// Drains workflow.events into notification rows; reconnects forever.
	go func() {
		if err := queue.StartWorkflowConsumer(db); err != nil {
			log.Printf("workflow consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
