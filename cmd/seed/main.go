package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shamsacademy/academy-backend/internal/app"
	catalogseed "github.com/shamsacademy/academy-backend/internal/modules/catalog"
	"github.com/shamsacademy/academy-backend/internal/platform/envutil"
	"github.com/shamsacademy/academy-backend/internal/platform/shutdown"
)

func main() {
	path := flag.String("file", "catalog.yaml", "YAML catalog to load")
	flag.Parse()

	if err := envutil.LoadDotEnv(); err != nil {
		fmt.Printf("failed to load .env: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Printf("open catalog: %v\n", err)
		os.Exit(1)
	}
	file, err := catalogseed.Parse(f)
	_ = f.Close()
	if err != nil {
		fmt.Printf("parse catalog %s: %v\n", *path, err)
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

	report, err := a.Services.Course.Seed(ctx, file)
	if err != nil {
		a.Log.Error("seed failed", "file", *path, "error", err)
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("Catalog seeded",
		"file", *path,
		"courses_created", report.CoursesCreated,
		"courses_skipped", report.CoursesSkipped,
		"tests_created", report.TestsCreated,
		"tests_skipped", report.TestsSkipped,
	)
}
