package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hatchery-inc/hatchery/internal/infrastructure/database"
	"github.com/hatchery-inc/hatchery/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/hatchery-inc/hatchery/internal/interfaces/http"
)

// The worker runs only the deployment sweep, for setups where the API and
// the monitor are scaled separately.
func main() {
	opts := bootstrap.Options{Env: "development"}
	if len(os.Args) > 1 {
		opts.Env = os.Args[1]
	}

	cfg, log, err := bootstrap.Init(opts)
	if err != nil {
		fmt.Printf("failed to start worker: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg.Monitor.Enabled = true
	c, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		log.Errorw("failed to build container", "error", err)
		os.Exit(1)
	}
	defer c.Shutdown()

	log.Infow("starting deployment monitor worker",
		"environment", opts.ResolveEnv(),
		"sweep_interval", cfg.Monitor.SweepInterval())

	resumeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := c.Monitor().Resume(resumeCtx); err != nil {
		log.Errorw("failed to resume deployment tracking", "error", err)
	}
	cancel()

	c.Scheduler().Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Infow("received signal, shutting down", "signal", sig)
}
