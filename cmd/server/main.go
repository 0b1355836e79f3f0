package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-slot-reservation/internal/broadcast"
	"github.com/iliyamo/parking-slot-reservation/internal/config"
	"github.com/iliyamo/parking-slot-reservation/internal/database"
	"github.com/iliyamo/parking-slot-reservation/internal/handler"
	"github.com/iliyamo/parking-slot-reservation/internal/lockstore"
	appmw "github.com/iliyamo/parking-slot-reservation/internal/middleware"
	"github.com/iliyamo/parking-slot-reservation/internal/queue"
	"github.com/iliyamo/parking-slot-reservation/internal/repository"
	"github.com/iliyamo/parking-slot-reservation/internal/router"
	"github.com/iliyamo/parking-slot-reservation/internal/service"
	"github.com/iliyamo/parking-slot-reservation/internal/simulator"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is mandatory: it is the source of truth for slot locks.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis unreachable; cannot grant slot locks without the lock store")
	}
	locks := lockstore.NewRedisStore(rdb, "lock")

	lotRepo := repository.NewLotRepo(db)
	slotRepo := repository.NewSlotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	hub := broadcast.NewHub()
	manager := service.NewLockManager(locks, slotRepo, hub)
	finalizer := service.NewBookingFinalizer(locks, slotRepo, lotRepo, bookingRepo,
		service.NewRabbitPublisher(), hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SweepIntervalSec > 0 {
		sweeper := simulator.NewSweeper(lotRepo, slotRepo, locks, hub,
			time.Duration(cfg.SweepIntervalSec)*time.Second)
		go sweeper.Run(ctx)
	}

	// Background consumer appending confirmed bookings to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	parkingHandler := handler.NewParkingHandler(lotRepo, slotRepo, hub)
	lockHandler := handler.NewLockHandler(manager)
	bookingHandler := handler.NewBookingHandler(finalizer, bookingRepo, slotRepo)
	eventsHandler := handler.NewEventsHandler(hub, lotRepo)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, parkingHandler, lockHandler, eventsHandler)
	router.RegisterCustomer(e, lockHandler, bookingHandler, cfg.JWTSecret)
	router.RegisterSensor(e, parkingHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
