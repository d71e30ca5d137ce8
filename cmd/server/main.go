package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/bigfranky/ticket-service/internal/config"
	"github.com/bigfranky/ticket-service/internal/database"
	"github.com/bigfranky/ticket-service/internal/handler"
	"github.com/bigfranky/ticket-service/internal/pdfstore"
	"github.com/bigfranky/ticket-service/internal/queue"
	"github.com/bigfranky/ticket-service/internal/render"
	"github.com/bigfranky/ticket-service/internal/repository"
	"github.com/bigfranky/ticket-service/internal/router"
	"github.com/bigfranky/ticket-service/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins

	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and lookup cache disabled")
	}

	pdfs, err := pdfstore.New(cfg.TicketDir)
	if err != nil {
		log.Fatalf("pdfstore: %v", err)
	}

	orders := repository.NewOrderRepo(db)
	items := repository.NewItemRepo(db)
	units := repository.NewTicketUnitRepo(db)

	renderer := render.NewClient(cfg.RenderEndpoint, cfg.RenderAPIKey, cfg.RenderTimeout)
	gen := service.NewGenerator(orders, items, units, renderer, pdfs,
		cfg.PublicBaseURL, cfg.SiteName, logger)
	auto := service.NewAutoCompleter(orders, items, service.QueueNotifier{}, logger)
	scanner := service.NewScanner(units, orders, logger)
	lifecycle := service.NewLifecycleHandler(gen, auto, cfg.AutoCompleteDelay, logger)

	// The consumer runs its own reconnect loop for the lifetime of the
	// process.
	go func() {
		if err := queue.StartOrderConsumer(lifecycle, logger); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	scanH := handler.NewScanHandler(scanner, cfg.ScanAPIKey, cfg.ScanAPIKeyHash)
	adminH := handler.NewAdminHandler(orders, items, units, gen, auto, pdfs,
		cfg.ScannerBaseURL, cfg.ScannerSecret)

	router.RegisterPublic(e, scanH, rdb)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
