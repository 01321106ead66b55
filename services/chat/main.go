package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gauravprp/localNetChatBygs/internal/config"
	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/directory/memory"
	"github.com/Gauravprp/localNetChatBygs/internal/directory/postgres"
	"github.com/Gauravprp/localNetChatBygs/internal/handler"
	"github.com/Gauravprp/localNetChatBygs/internal/logger"
	"github.com/Gauravprp/localNetChatBygs/internal/middleware"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
	"github.com/Gauravprp/localNetChatBygs/internal/startup"
	"github.com/Gauravprp/localNetChatBygs/internal/ws"
)

func main() {
	logger.SetPrefix("chat")
	migrate := flag.Bool("migrate", false, "run database migrations and exit (postgres backend)")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL (postgres backend, no external DB required)")
	flag.Parse()

	logger.Info("starting chat service")
	cfg := config.Load()

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev && cfg.DirectoryBackend == "postgres" {
		var err error
		embeddedDB, err = startEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	dir := openDirectory(cfg, *migrate)
	if dir == nil {
		return // -migrate only
	}
	defer dir.Close()
	resetStatuses(dir)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	hub := ws.NewHub(dir, ws.Settings{
		MaxConns:       cfg.MaxWSConnections,
		SendBufSize:    cfg.WSSendBufferSize,
		WriteTimeout:   time.Duration(cfg.WSWriteTimeout) * time.Second,
		PongTimeout:    time.Duration(cfg.WSPongTimeout) * time.Second,
		MaxMessageSize: int64(cfg.WSMaxMessageSize),
	})

	var hubWg sync.WaitGroup
	hubWg.Add(1)
	go func() {
		defer hubWg.Done()
		hub.Run(hubCtx)
	}()

	userH := handler.NewUserHandler(dir, hub)
	groupH := handler.NewGroupHandler(dir, hub)
	wsH := handler.NewWSHandler(hub, cfg.CORSAllowedOrigins)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.RequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Post("/api/users", userH.CreateUser)
	r.Get("/api/users", userH.GetUsers)
	r.Get("/api/groups", groupH.GetGroups)
	r.Post("/api/groups/{id}/members", groupH.AddMember)
	r.Delete("/api/groups/{id}/members/{username}", groupH.RemoveMember)
	r.Get("/ws", wsH.ServeWS)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	hubCancel()
	hubWg.Wait()
	logger.Info("hub stopped")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}

// openDirectory builds the configured directory backend. With -migrate and
// the postgres backend it applies migrations and returns nil.
func openDirectory(cfg *config.Config, migrateOnly bool) directory.Directory {
	switch strings.ToLower(cfg.DirectoryBackend) {
	case "", "memory":
		logger.Info("directory backend: memory")
		return memory.New()
	case "redis":
		logger.Info("directory backend: redis")
		return startup.ConnectRedisWithRetry(cfg.RedisURL, 60*time.Second, "")
	case "postgres":
		logger.Info("directory backend: postgres")
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
		if err != nil {
			logger.Errorf("parse db config: %v", err)
			os.Exit(1)
		}
		poolCfg.MaxConns = int32(cfg.DBMaxConnections())
		pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second, "")
		runMigrations(pool)
		if migrateOnly {
			pool.Close()
			return nil
		}
		return postgres.New(pool)
	default:
		logger.Errorf("unknown directory backend %q", cfg.DirectoryBackend)
		os.Exit(1)
		return nil
	}
}

// resetStatuses marks every directory user offline at boot; nobody has a
// live connection yet.
func resetStatuses(dir directory.Directory) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	users, err := dir.ListUsers(ctx)
	if err != nil {
		logger.Errorf("reset statuses: %v", err)
		return
	}
	for _, u := range users {
		if u.Status == model.StatusOffline {
			continue
		}
		if err := dir.SetStatus(ctx, u.Username, model.StatusOffline); err != nil {
			logger.Errorf("reset status user=%s: %v", u.Username, err)
		}
	}
}

func runMigrations(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	files := []string{"migrations/001_init.sql"}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			logger.Errorf("read migration %s: %v", f, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("run migration %s: %v", f, err)
			os.Exit(1)
		}
	}
	logger.Info("migrations applied")
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "chat"
		password = "chat_secret"
		database = "chat"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, password, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}
