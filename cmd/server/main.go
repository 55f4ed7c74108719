package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/homekitchen/internal/audit"
	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/config"
	"github.com/mmynk/homekitchen/internal/kitchen"
	"github.com/mmynk/homekitchen/internal/metrics"
	"github.com/mmynk/homekitchen/internal/middleware"
	"github.com/mmynk/homekitchen/internal/service"
	"github.com/mmynk/homekitchen/internal/storage/sqlite"
	"github.com/mmynk/homekitchen/internal/uploads"
	"github.com/mmynk/homekitchen/internal/web"
	"github.com/mmynk/homekitchen/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DB.Path)

	m := metrics.New()
	engine := audit.NewEngine(store, audit.NewCatalog(cfg.App.Locale),
		audit.WithObserver(m),
		audit.WithLogger(logger),
		audit.WithCascadeChildren(cfg.Audit.CascadeItems),
	)
	files := uploads.NewDisk(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	svc := kitchen.New(store, engine, auth.NewBcrypt(cfg.Auth.BcryptCost), files,
		kitchen.WithDefaultPassword(cfg.Auth.DefaultPassword),
		kitchen.WithLogger(logger),
	)
	sessions := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)

	mux := http.NewServeMux()

	// Register Connect services
	authPath, authHandler := service.NewAuthServiceHandler(
		service.NewAuthService(svc, sessions, m, logger),
		connect.WithInterceptors(middleware.OptionalAuth(sessions), middleware.LoggingInterceptor()),
	)
	mux.Handle(authPath, authHandler)

	kitchenPath, kitchenHandler := service.NewKitchenServiceHandler(
		service.NewKitchenService(svc, logger),
		connect.WithInterceptors(middleware.RequireAuth(sessions), middleware.LoggingInterceptor()),
	)
	mux.Handle(kitchenPath, kitchenHandler)

	// HTML pages
	pages, err := web.New(svc, sessions, web.Options{
		Title:      cfg.App.Title,
		CookieName: cfg.Session.Cookie,
		Logins:     m,
		Logger:     logger,
	})
	if err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}
	pages.Register(mux)

	// Uploads may live outside the static directory
	uploadPrefix := "/" + strings.Trim(cfg.Uploads.URLPrefix, "/") + "/"
	mux.Handle("GET "+uploadPrefix, http.StripPrefix(uploadPrefix, http.FileServer(http.Dir(files.Dir()))))

	staticDir, err := filepath.Abs(cfg.Static.Dir)
	if err != nil {
		slog.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	if uploadPrefix != "/static/" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	slog.Info("Serving static files", "path", staticDir, "uploads", files.Dir())

	mux.Handle("GET /metrics", m.Handler())

	handler := middleware.Session(sessions, cfg.Session.Cookie, svc)(middleware.Logging(m)(corsMiddleware(mux)))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server starting", "address", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// corsMiddleware adds CORS headers for browser access to the Connect API.
// HTML pages are same-origin and left alone.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !service.IsProcedurePath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
