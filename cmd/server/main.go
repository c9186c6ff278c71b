// Command server runs the hostel management API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/tx"

	admissionservice "hostelcore/internal/admission/service"
	admissionstore "hostelcore/internal/admission/store"
	allocationservice "hostelcore/internal/allocation/service"
	allocationstore "hostelcore/internal/allocation/store"
	billingservice "hostelcore/internal/billing/service"
	billingstore "hostelcore/internal/billing/store"
	"hostelcore/internal/events"
	facilityservice "hostelcore/internal/facility/service"
	facilitystore "hostelcore/internal/facility/store"
	identityservice "hostelcore/internal/identity/service"
	identitystore "hostelcore/internal/identity/store"
	incidentservice "hostelcore/internal/incident/service"
	incidentstore "hostelcore/internal/incident/store"
	"hostelcore/internal/platform/config"
	"hostelcore/internal/platform/httpserver"
	"hostelcore/internal/platform/logger"
	"hostelcore/internal/platform/metrics"
	"hostelcore/internal/platform/middleware"
	"hostelcore/internal/platform/postgres"
	"hostelcore/internal/platform/redis"
	httptransport "hostelcore/internal/transport/http"
)

// facilityStorage is the full facility store surface: the catalog plus the
// occupancy mutators only the allocation engine calls.
type facilityStorage interface {
	facilityservice.Store
	OccupyBed(ctx context.Context, bedID id.BedID) error
	ReleaseBed(ctx context.Context, bedID id.BedID) error
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage. With DATABASE_URL set every store runs on postgres and shares
	// serializable transactions; without it the in-memory stores serve
	// development and tests, serialized by one process-wide runner.
	var (
		db     *sql.DB
		runner tx.Runner

		identityStore   identityservice.Store
		facilityStore   facilityStorage
		admissionStore  admissionservice.Store
		allocationStore allocationservice.Store
		feeStore        billingservice.FeeStore
		paymentStore    billingservice.PaymentStore
		incidentStore   incidentservice.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema bootstrap failed", "error", err)
			os.Exit(1)
		}
		runner = postgres.NewTxRunner(db, cfg.TxRetries).OnConflict(m.IncrementAllocationConflicts)

		identityStore = identitystore.NewPostgres(db)
		facilityStore = facilitystore.NewPostgres(db)
		admissionStore = admissionstore.NewPostgres(db)
		allocationStore = allocationstore.NewPostgres(db)
		billingStore := billingstore.NewPostgres(db)
		feeStore = billingStore
		paymentStore = billingStore
		incidentStore = incidentstore.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		runner = tx.NewMutexRunner()

		identityStore = identitystore.NewInMemory()
		facilityStore = facilitystore.NewInMemory()
		admissionStore = admissionstore.NewInMemory()
		allocationStore = allocationstore.NewInMemory()
		billingStore := billingstore.NewInMemory()
		feeStore = billingStore
		paymentStore = billingStore
		incidentStore = incidentstore.NewInMemory()
	}

	// Fee schedules are read on every payment and change rarely; front them
	// with Redis when one is configured.
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		feeStore = billingstore.NewFeeCache(feeStore, redisClient, config.FeeCacheTTL, log)
	}

	// Notifications. Without brokers events are dropped silently.
	var publisher events.Publisher = events.Noop{}
	if cfg.KafkaBrokers != "" {
		kafka, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
	}
	dispatcher := events.NewDispatcher(publisher, log)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	go dispatcher.Run(dispatchCtx)

	// Services.
	identity := identityservice.New(identityStore, runner, log)
	facility := facilityservice.New(facilityStore)

	admissionOpts := []admissionservice.Option{admissionservice.WithMetrics(m)}
	if cfg.RequireVerifiedApproval {
		admissionOpts = append(admissionOpts, admissionservice.WithVerifiedApprovalPolicy())
	}
	admission := admissionservice.New(admissionStore, identityStore, dispatcher, admissionOpts...)

	allocation := allocationservice.New(
		allocationStore, admissionStore, identityStore, facility, facilityStore,
		runner, dispatcher, log,
		allocationservice.WithMetrics(m),
	)
	auditor := allocationservice.NewAuditor(allocationStore, facilityStore, m, log)

	billing := billingservice.New(feeStore, paymentStore, facilityStore, identityStore, dispatcher,
		billingservice.WithMetrics(m))
	incident := incidentservice.New(incidentStore, identityStore, facilityStore, dispatcher)

	// Transport.
	validator := middleware.NewHMACValidator(cfg.JWTSigningKey)
	handler := httptransport.NewHandler(log, identity, facility, admission, allocation, auditor, billing, incident)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, validator))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}

	// Let the dispatcher drain queued notifications before the process exits.
	stopDispatch()
	dispatcher.Wait()
}
