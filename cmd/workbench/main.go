package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/suiteworks/suiteql-workbench/internal/auth/netsuite"
	"github.com/suiteworks/suiteql-workbench/internal/auth/token"
	"github.com/suiteworks/suiteql-workbench/internal/config"
	"github.com/suiteworks/suiteql-workbench/internal/db"
	"github.com/suiteworks/suiteql-workbench/internal/server/handlers"
	"github.com/suiteworks/suiteql-workbench/internal/server/middleware"
	"github.com/suiteworks/suiteql-workbench/internal/suiteql"
	"github.com/suiteworks/suiteql-workbench/internal/version"
)

func main() {
	configPath := flag.String("config", "workbench.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	tokenManager := token.NewManager(database, httpClient)
	flow := netsuite.NewFlow(database, cfg.AuthTimeout, httpClient)
	executor := suiteql.NewExecutor(tokenManager, flow, httpClient)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", handlers.StatusHandler(database))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AdminAuth())

		r.Get("/accounts", handlers.AccountsListHandler(database))
		r.Post("/accounts", handlers.AccountCreateHandler(database))
		r.Put("/accounts/{id}", handlers.AccountUpdateHandler(database))
		r.Delete("/accounts/{id}", handlers.AccountDeleteHandler(database))
		r.Post("/accounts/{id}/select", handlers.AccountSelectHandler(database))
		r.Post("/accounts/{id}/authorize", handlers.AccountAuthorizeHandler(database, flow))
		r.Post("/accounts/{id}/refresh", handlers.AccountRefreshHandler(database, tokenManager))

		r.Post("/query", handlers.QueryHandler(database, executor))
		r.Get("/history", handlers.HistoryHandler(database))
	})

	log.Printf("🚀 SuiteQL Workbench %s listening on %s", version.Version, cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, r); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
