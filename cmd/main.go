package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/itsDNNS/docsight-sub000/docs"
	"github.com/itsDNNS/docsight-sub000/internal/collector"
	"github.com/itsDNNS/docsight-sub000/internal/config"
	"github.com/itsDNNS/docsight-sub000/internal/events"
	"github.com/itsDNNS/docsight-sub000/internal/handlers"
	"github.com/itsDNNS/docsight-sub000/internal/logger"
	"github.com/itsDNNS/docsight-sub000/internal/publisher"
	"github.com/itsDNNS/docsight-sub000/internal/repository"
	"github.com/itsDNNS/docsight-sub000/internal/repository/db"
	"github.com/itsDNNS/docsight-sub000/internal/server"
	"github.com/itsDNNS/docsight-sub000/internal/service"
	"github.com/itsDNNS/docsight-sub000/internal/thresholds"
)

const (
	configDir          = "configs"
	writeTimeoutMargin = 5 * time.Second
)

// @title           DOCSight API
// @version         1.0
// @description     Cable modem channel health, events and collector status.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level)

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer closeDB(sqlDB, log)

	table, err := thresholds.NewStore(cfg.Thresholds.Path)
	if err != nil {
		log.Fatalw("failed to load thresholds", "path", cfg.Thresholds.Path, "err", err)
	}

	repos := repository.NewRepository(sqlDB)
	detector := events.NewDetector(events.Config{
		PowerTolerance:     cfg.Detector.PowerToleranceDB,
		SNRTolerance:       cfg.Detector.SNRToleranceDB,
		ErrorSpikeAbsolute: cfg.Detector.ErrorSpikeAbsolute,
		ErrorSpikeRelative: cfg.Detector.ErrorSpikeRelative,
	})

	reg, err := collector.Build(cfg, collector.Deps{
		Thresholds: table,
		Detector:   detector,
		Snapshots:  repos.Snapshots,
		Speedtests: repos.Speedtests,
		Log:        log.Named("collector"),
	})
	if err != nil {
		log.Fatalw("failed to build collectors", "err", err)
	}

	var listeners []collector.Listener
	pub := connectPublisher(cfg.NATS, log)
	if pub != nil {
		listeners = append(listeners, pub)
	}

	sched := collector.NewScheduler(reg, collector.Options{
		Tick:           cfg.Scheduler.Tick,
		CollectTimeout: cfg.Scheduler.CollectTimeout,
		ShutdownGrace:  cfg.Scheduler.ShutdownGrace,
	}, repos.CollectorState, log.Named("scheduler"), listeners...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Restore(ctx); err != nil {
		log.Warnw("collector_state_restore_failed", "err", err)
	}

	services := service.NewService(repos, service.Deps{
		Scheduler:       sched,
		Thresholds:      table,
		JWTSecret:       cfg.Auth.JWTSecret,
		RefreshCooldown: cfg.API.RefreshCooldown,
		DefaultSource:   cfg.Modem.Name,
	})
	if !services.Authorization.Enabled() {
		log.Warnw("auth.jwt_secret not set; API is unauthenticated")
	}
	apiHandler := handlers.NewHandler(services, log.Named("http"))

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, server.Options{
		WriteTimeout: cfg.Scheduler.CollectTimeout + writeTimeoutMargin,
	}, apiHandler, log)

	waitForShutdown(cancel, schedDone, srv, pub, log)
}

// connectPublisher returns nil when NATS is not configured or unreachable;
// collection keeps running without it.
func connectPublisher(cfg config.NATSConfig, log *logger.Logger) *publisher.Publisher {
	if cfg.URL == "" {
		return nil
	}
	pub, err := publisher.Connect(cfg.URL, cfg.SubjectPrefix, log.Named("publisher"))
	if err != nil {
		log.Warnw("nats_unavailable", "url", cfg.URL, "err", err)
		return nil
	}
	log.Infow("nats_connected", "url", cfg.URL, "prefix", cfg.SubjectPrefix)
	return pub
}

func closeDB(sqlDB *sql.DB, log *logger.Logger) {
	if err := sqlDB.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, opts server.Options, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes(), opts); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops the scheduler
// before the HTTP server.
func waitForShutdown(cancel context.CancelFunc, schedDone <-chan struct{}, srv *server.Server, pub *publisher.Publisher, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// the scheduler drains in-flight runs up to its shutdown grace
	cancel()
	<-schedDone

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	if pub != nil {
		pub.Close()
	}
}
