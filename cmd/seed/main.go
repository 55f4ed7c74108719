// Command seed creates the default household members when the database has
// no users yet.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mmynk/homekitchen/internal/audit"
	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/config"
	"github.com/mmynk/homekitchen/internal/kitchen"
	"github.com/mmynk/homekitchen/internal/storage/sqlite"
	"github.com/mmynk/homekitchen/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level)

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := audit.NewEngine(store, audit.NewCatalog(cfg.App.Locale), audit.WithLogger(logger))
	svc := kitchen.New(store, engine, auth.NewBcrypt(cfg.Auth.BcryptCost), nil,
		kitchen.WithDefaultPassword(cfg.Auth.DefaultPassword),
		kitchen.WithLogger(logger),
	)

	n, err := kitchen.Seed(context.Background(), svc, cfg.Seed.Users)
	if err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Seeding finished", "created", n)
}
