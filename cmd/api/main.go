package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledger/internal/auth"
	"github.com/MrJamesThe3rd/ledger/internal/config"
	"github.com/MrJamesThe3rd/ledger/internal/database"
	ledgerHttp "github.com/MrJamesThe3rd/ledger/internal/http"
	authHandler "github.com/MrJamesThe3rd/ledger/internal/http/auth"
	importHandler "github.com/MrJamesThe3rd/ledger/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledger/internal/http/ratelimit"
	reportHandler "github.com/MrJamesThe3rd/ledger/internal/http/report"
	txHandler "github.com/MrJamesThe3rd/ledger/internal/http/transaction"
	userHandler "github.com/MrJamesThe3rd/ledger/internal/http/user"
	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/logging"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	txStore "github.com/MrJamesThe3rd/ledger/internal/transaction/store"
	"github.com/MrJamesThe3rd/ledger/internal/user"
	userStore "github.com/MrJamesThe3rd/ledger/internal/user/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := logging.New(os.Stdout, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	slog.SetDefault(logger)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		userService        = user.NewService(userStore.New(db))
		transactionService = transaction.NewService(txStore.New(db))
		importService      = importer.NewService(transactionService)
		reportService      = report.NewService(transactionService, report.WithCurrency(cfg.Report.Currency))
		issuer             = auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	)

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		created, err := userService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			return err
		}

		if created {
			slog.Info("created bootstrap admin", "email", cfg.Auth.AdminEmail)
		}
	}

	loginLimiter := ratelimit.New(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)

	router := ledgerHttp.New(issuer, userService, cfg.CORS.AllowedOrigins, loginLimiter, ledgerHttp.Handlers{
		Auth:         authHandler.NewHandler(userService, issuer),
		Transactions: txHandler.NewHandler(transactionService),
		Imports:      importHandler.NewHandler(importService),
		Users:        userHandler.NewHandler(userService),
		Reports:      reportHandler.NewHandler(reportService),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
