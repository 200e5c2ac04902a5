package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shamsacademy/academy-backend/internal/app"
	"github.com/shamsacademy/academy-backend/internal/jobs/runtime"
	"github.com/shamsacademy/academy-backend/internal/jobs/sweeper"
	"github.com/shamsacademy/academy-backend/internal/platform/envutil"
	"github.com/shamsacademy/academy-backend/internal/platform/shutdown"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	if err := envutil.LoadDotEnv(); err != nil {
		fmt.Printf("failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	reg := runtime.NewRegistry()
	if err := reg.Register(sweeper.New(a.Log, a.Services.Attempt)); err != nil {
		a.Log.Error("register sweeper", "error", err)
		a.Close()
		os.Exit(1)
	}
	sched := runtime.NewScheduler(a.Log, reg, envutil.Duration("SWEEPER_TIMEOUT", 5*time.Minute))

	if *once {
		if err := sched.RunNow(ctx, sweeper.JobType); err != nil {
			a.Log.Error("sweep failed", "error", err)
			a.Close()
			os.Exit(1)
		}
		return
	}

	spec := envutil.String("SWEEPER_SCHEDULE", "@every 1m")
	if err := sched.Schedule(spec, sweeper.JobType); err != nil {
		a.Log.Error("schedule sweeper", "error", err)
		a.Close()
		os.Exit(1)
	}
	sched.Start(ctx)
	a.Log.Info("Sweeper started", "spec", spec)

	<-ctx.Done()
	a.Log.Info("Stopping sweeper...")
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(sctx); err != nil {
		a.Log.Warn("sweeper stop timed out", "error", err)
	}
}
