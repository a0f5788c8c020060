package main

import (
	"context"
	"database/sql"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transferd.org/internal/config"
	"transferd.org/internal/events"
	"transferd.org/internal/httpapi"
	"transferd.org/internal/ledger"
	"transferd.org/internal/obs"
	"transferd.org/internal/rules"
	"transferd.org/internal/store/memory"
	"transferd.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Stores: PostgreSQL when a DSN is configured, in-memory otherwise.
	var (
		db           *sql.DB
		accounts     ledger.AccountStore
		transactions ledger.TransactionStore
	)
	if cfg.DatabaseURL != "" {
		db, err = pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		accounts = pg.NewAccountStore(db)
		transactions = pg.NewTransactionStore(db)
	} else {
		accounts = memory.NewAccountStore()
		transactions = memory.NewTransactionStore()
	}

	validator := rules.NewValidator(rules.Default()...)
	allocator := ledger.NewNumberAllocator(rand.NewSource(time.Now().UnixNano()))

	opts := []ledger.Option{}
	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.EventExchange)
		if err != nil {
			log.Fatalf("connect amqp: %v", err)
		}
		opts = append(opts, ledger.WithPublisher(publisher))
	} else {
		opts = append(opts, ledger.WithPublisher(events.Noop{}))
	}

	svc := ledger.NewService(accounts, transactions, validator, allocator, opts...)

	api := httpapi.New(svc, httpapi.ReadyProbe{DB: db}, httpapi.Options{
		Version:      version,
		TokenTTL:     time.Duration(cfg.TokenTTLMinutes) * time.Minute,
		AuthDisabled: os.Getenv("TRANSFERD_AUTH_SECRET") == "",
	})

	handler := httpapi.RequestID(
		httpapi.LoggingJSON(
			httpapi.SecurityHeaders(
				httpapi.CORS(
					httpapi.RateLimit(
						httpapi.MaxBodyBytes(api.Handler(), cfg.MaxBodyBytes),
						cfg.RateLimitBurst, cfg.RateLimitPerSec)))))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting transferd-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if publisher != nil {
		publisher.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
