package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/internal/config"
	"github.com/diewo77/freelance/internal/db"
	"github.com/diewo77/freelance/internal/logger"
	"github.com/diewo77/freelance/internal/policy"
	"github.com/diewo77/freelance/internal/storage"
	"github.com/diewo77/freelance/view"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "freelance",
	Short: "Freelance days and invoices web application",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()
		return logger.Setup(cfg.Log)
	},
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect opens the database, failing the command on error.
func connect() (*gorm.DB, error) {
	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("host", cfg.Database.Host).
		Str("dbname", cfg.Database.DBName).
		Msg("connecting to database")
	return db.Open(cfg.Database)
}

func runServe(cmd *cobra.Command, args []string) error {
	dbConn, err := connect()
	if err != nil {
		return err
	}

	// sqlite databases are created on the fly; postgres only when asked to.
	if cfg.App.Migrations || cfg.Database.IsSQLite() {
		if err := db.Migrate(dbConn, cfg); err != nil {
			return err
		}
		log.Info().Msg("migrations completed")
	}

	auth.SetSecret(cfg.App.SessionSecret)
	verifier := auth.NewCachedVerifier(func(_ context.Context, uid uint) bool {
		return db.UserExists(dbConn, uid)
	}, time.Minute)
	auth.SetUserVerifier(verifier.Verify)
	view.SetDev(cfg.App.Dev)

	media := storage.New(cfg.App.MediaRoot)
	limiter := auth.NewLimiter(cfg.App.LoginRate, 0)
	routerCfg := policy.NewRouterConfig(dbConn, media, nil, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(dbConn, routerCfg),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("dev", cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		log.Info().Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}
