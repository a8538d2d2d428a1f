package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"fixbet/internal/auth"
	"fixbet/internal/claim"
	"fixbet/internal/clock"
	"fixbet/internal/compliance"
	"fixbet/internal/config"
	"fixbet/internal/db"
	httpx "fixbet/internal/http"
	"fixbet/internal/job"
	"fixbet/internal/logger"
	"fixbet/internal/metrics"
	"fixbet/internal/payment"
	"fixbet/internal/tasks"
)

func main() {
	cfg, _ := config.Load()

	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	metrics.Register()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		slog.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	clk := clock.System{}
	evaluator := compliance.Evaluator{
		GraceDays:    cfg.ComplianceGraceDays,
		ReminderDays: cfg.ComplianceReminderDays,
	}

	jobSvc := &job.Service{DB: gdb, Clock: clk}
	paySvc := &payment.Service{DB: gdb, Clock: clk, Evaluator: evaluator}
	claimSvc := &claim.Service{DB: gdb, Clock: clk}
	taskRepo := &tasks.Repo{DB: gdb}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(httpx.Deps{
		Cfg:       cfg,
		DB:        gdb,
		JWT:       jwtSvc,
		Clock:     clk,
		Jobs:      jobSvc,
		Payments:  paySvc,
		Claims:    claimSvc,
		Tasks:     taskRepo,
		Evaluator: evaluator,
	})

	// worker
	worker := &tasks.Worker{
		ID:       "worker-" + uuid.NewString()[:8],
		Repo:     taskRepo,
		Payments: paySvc,
		Claims:   claimSvc,
		Clock:    clk,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
