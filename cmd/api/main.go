package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/bngy/siminvest/internal/account"
	accountStore "github.com/bngy/siminvest/internal/account/store"
	"github.com/bngy/siminvest/internal/auth"
	authStore "github.com/bngy/siminvest/internal/auth/store"
	"github.com/bngy/siminvest/internal/config"
	"github.com/bngy/siminvest/internal/database"
	siminvestHttp "github.com/bngy/siminvest/internal/http"
	accountHandler "github.com/bngy/siminvest/internal/http/account"
	authHandler "github.com/bngy/siminvest/internal/http/auth"
	investmentHandler "github.com/bngy/siminvest/internal/http/investment"
	"github.com/bngy/siminvest/internal/investment"
	investmentStore "github.com/bngy/siminvest/internal/investment/store"
	"github.com/bngy/siminvest/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		authService       = auth.NewService(authStore.New(db), []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
		accountService    = account.NewService(accountStore.New(db), decimal.NewFromFloat(cfg.Ledger.InterestRate))
		investmentService = investment.NewService(investmentStore.New(db))
	)

	sched := scheduler.New()

	contributions := scheduler.NewContributionJob(investmentService, cfg.Scheduler.PositionTimeout)
	if err := sched.AddJob(cfg.Scheduler.ContributionSpec, contributions); err != nil {
		slog.Error("failed to register contribution job", "error", err)
		os.Exit(1)
	}

	sched.Start()
	defer sched.Stop()

	var (
		authH       = authHandler.NewHandler(authService)
		accountH    = accountHandler.NewHandler(accountService, investmentService)
		investmentH = investmentHandler.NewHandler(investmentService)
	)

	router := siminvestHttp.New(authH, accountH, investmentH, authService)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
