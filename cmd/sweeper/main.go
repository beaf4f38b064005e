// The sweeper periodically unblocks pages whose admin-set unblock date has
// passed. It runs on its own schedule, independent of the API server.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/innotter/backend/internal/config"
	"github.com/innotter/backend/internal/database"
	"github.com/innotter/backend/internal/events"
	"github.com/innotter/backend/internal/logging"
	"github.com/innotter/backend/internal/services"
)

var runOnce = flag.Bool("run-once", false, "Run the unblock sweep once and exit")

func main() {
	flag.Parse()
	logging.Setup()

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	// The sweeper emits no events; an inert bus keeps the service wiring uniform.
	pageService := services.NewPageService(database.DB, events.NewBus())

	if *runOnce {
		sweep(pageService)
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() { sweep(pageService) }); err != nil {
		slog.Error("failed to schedule unblock sweep", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("sweeper started", "schedule", cfg.SweepSchedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx := c.Stop()
	<-ctx.Done()
	slog.Info("sweeper stopped")
}

func sweep(pageService *services.PageService) {
	n, err := pageService.UnblockExpired(time.Now().UTC())
	if err != nil {
		slog.Error("unblock sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("unblock sweep completed", "unblocked", n)
	}
}
