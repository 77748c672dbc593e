package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"time"

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/parking-reservation/internal/config"   // Internal config loader
	"github.com/iliyamo/parking-reservation/internal/database" // MySQL connection setup
	"github.com/iliyamo/parking-reservation/internal/handler"  // HTTP handlers
	"github.com/iliyamo/parking-reservation/internal/queue"    // Reservation event consumer
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/router" // Internal router setup
	"github.com/iliyamo/parking-reservation/internal/service"
)

func main() {
	// .env is optional; a real deployment injects the environment
	// directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	lots := repository.NewLotRepo(db)
	spots := repository.NewSpotRepo(db)
	resvs := repository.NewReservationRepo(db)

	seedAdmin(cfg, users)

	lotSvc := service.NewLotService(lots, spots, resvs)
	resSvc := service.NewReservationService(lots, spots, resvs)
	statsSvc := service.NewStatsService(users, spots, resvs)

	// Redis backs rate limiting and the public lot cache.  A nil client
	// simply disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	// The consumer appends reservation lifecycle events to
	// logs/reservation.log and reconnects on broker failures.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	h := &router.Handlers{
		Auth:  handler.NewAuthHandler(cfg, users, tokens),
		Lots:  handler.NewAdminLotHandler(lots, spots, lotSvc),
		Spots: handler.NewAdminSpotHandler(spots, resvs, lotSvc),
		Stats: handler.NewAdminStatsHandler(users, resvs, statsSvc),
		Brows: handler.NewLotBrowseHandler(lots, spots),
		Resvs: handler.NewReservationHandler(lots, spots, resvs, resSvc, statsSvc),
	}

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterPublic(e, h, rdb)
	router.RegisterAuth(e, h, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

// seedAdmin ensures the configured admin account exists.  An already
// registered email is fine; any other failure aborts startup since an
// instance without an admin cannot manage lots.
func seedAdmin(cfg config.Config, users *repository.UserRepo) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := users.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, "Administrator", true, cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return
		}
		log.Fatalf("seed admin: %v", err)
	}
	log.Printf("seeded admin account %s", cfg.AdminEmail)
}
