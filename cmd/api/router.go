package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/crucial707/ammotrack/internal/ai"
	"github.com/crucial707/ammotrack/internal/cache"
	"github.com/crucial707/ammotrack/internal/config"
	"github.com/crucial707/ammotrack/internal/handlers"
	"github.com/crucial707/ammotrack/internal/middleware"
	"github.com/crucial707/ammotrack/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires every route. gen may be nil, in which case the AI routes
// answer 503; c may be nil to disable response caching.
func newRouter(db *sql.DB, cfg config.Config, gen ai.Generator, c cache.Cache) http.Handler {
	secret := []byte(cfg.JWTSecret)
	if c == nil {
		c = cache.Noop{}
	}

	// ==========================
	// Repositories
	// ==========================
	userRepo := repo.NewUserRepo(db)
	auditRepo := repo.NewAuditRepo(db)
	depotRepo := repo.NewDepotRepo(db)
	firearmRepo := repo.NewFirearmRepo(db)
	magazineRepo := repo.NewMagazineRepo(db)
	ammoRepo := repo.NewAmmunitionRepo(db)
	shipmentRepo := repo.NewShipmentRepo(db)
	scenarioRepo := repo.NewScenarioRepo(db)
	usageRepo := repo.NewUsageLogRepo(db)
	maintenanceRepo := repo.NewMaintenanceRepo(db)
	alertRepo := repo.NewAlertRepo(db)
	inventoryRepo := repo.NewInventoryRepo(db)

	// ==========================
	// Handlers
	// ==========================
	authHandler := &handlers.AuthHandler{UserRepo: userRepo, AuditRepo: auditRepo, Secret: secret, TokenTTL: cfg.JWTExpiry()}
	userHandler := &handlers.UserHandler{Repo: userRepo, AuditRepo: auditRepo}
	depotHandler := &handlers.DepotHandler{Repo: depotRepo, AuditRepo: auditRepo}
	firearmHandler := &handlers.FirearmHandler{Repo: firearmRepo, AuditRepo: auditRepo}
	magazineHandler := &handlers.MagazineHandler{Repo: magazineRepo, AuditRepo: auditRepo}
	ammoHandler := &handlers.AmmunitionHandler{Repo: ammoRepo, AuditRepo: auditRepo}
	shipmentHandler := &handlers.ShipmentHandler{Repo: shipmentRepo, AuditRepo: auditRepo}
	scenarioHandler := &handlers.ScenarioHandler{Repo: scenarioRepo, Ammunition: ammoRepo, AuditRepo: auditRepo}
	usageHandler := &handlers.UsageHandler{Repo: usageRepo, AuditRepo: auditRepo}
	maintenanceHandler := &handlers.MaintenanceHandler{Repo: maintenanceRepo, AuditRepo: auditRepo}
	alertHandler := &handlers.AlertHandler{Repo: alertRepo, Inventory: inventoryRepo, AuditRepo: auditRepo}
	inventoryHandler := &handlers.InventoryHandler{Repo: inventoryRepo}
	auditHandler := &handlers.AuditHandler{Repo: auditRepo}

	aiOpts := ai.Options{Cache: c, TTL: cfg.AICacheTTL(), Model: cfg.GeminiModel}
	aiHandler := &handlers.AIHandler{
		StockBalancing: &ai.StockBalancingFlow{Gen: gen, Opts: aiOpts},
		Rebalancing:    &ai.RebalancingFlow{Gen: gen, Opts: aiOpts},
		Inventory:      inventoryRepo,
		Scenarios:      scenarioRepo,
		Usage:          usageRepo,
		Shipments:      shipmentRepo,
		AuditRepo:      auditRepo,
		Timeout:        cfg.AITimeout(),
	}

	// ==========================
	// Router
	// ==========================
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		r.Use(middleware.Prometheus)
	}
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{HSTS: cfg.TLSEnabled(), NoStore: true}))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.AuthRateLimiter().Middleware)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Reads need a token; mutations need the admin role.
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(secret))

		r.Get("/depots", depotHandler.ListDepots)
		r.Get("/depots/{id}", depotHandler.GetDepot)
		r.Get("/firearms", firearmHandler.ListFirearms)
		r.Get("/firearms/export.csv", firearmHandler.ExportFirearms)
		r.Get("/firearms/{id}", firearmHandler.GetFirearm)
		r.Get("/magazines", magazineHandler.ListMagazines)
		r.Get("/magazines/{id}", magazineHandler.GetMagazine)
		r.Get("/ammunition", ammoHandler.ListAmmunition)
		r.Get("/ammunition/{id}", ammoHandler.GetAmmunition)
		r.Get("/shipments", shipmentHandler.ListShipments)
		r.Get("/shipments/{id}", shipmentHandler.GetShipment)
		r.Get("/scenarios", scenarioHandler.ListScenarios)
		r.Get("/scenarios/{id}", scenarioHandler.GetScenario)
		r.Post("/scenarios/{id}/project", scenarioHandler.ProjectScenario)
		r.Get("/usage", usageHandler.ListUsage)
		r.Get("/usage/summary", usageHandler.UsageSummary)
		r.Get("/maintenance", maintenanceHandler.ListMaintenance)
		r.Get("/maintenance/{id}", maintenanceHandler.GetMaintenance)
		r.Get("/alerts", alertHandler.ListAlerts)
		r.Get("/alerts/active", alertHandler.ActiveAlerts)
		r.Get("/alerts/{id}", alertHandler.GetAlert)
		r.Get("/inventory/snapshot", inventoryHandler.Snapshot)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AIRateLimiter().Middleware)
			r.Post("/ai/stock-balancing", aiHandler.StockBalancingRun)
			r.Post("/ai/rebalancing", aiHandler.RebalancingRun)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/depots", depotHandler.CreateDepot)
			r.Put("/depots/{id}", depotHandler.UpdateDepot)
			r.Delete("/depots/{id}", depotHandler.DeleteDepot)

			r.Post("/firearms", firearmHandler.CreateFirearm)
			r.Put("/firearms/{id}", firearmHandler.UpdateFirearm)
			r.Delete("/firearms/{id}", firearmHandler.DeleteFirearm)

			r.Post("/magazines", magazineHandler.CreateMagazine)
			r.Put("/magazines/{id}", magazineHandler.UpdateMagazine)
			r.Delete("/magazines/{id}", magazineHandler.DeleteMagazine)

			r.Post("/ammunition", ammoHandler.CreateAmmunition)
			r.Put("/ammunition/{id}", ammoHandler.UpdateAmmunition)
			r.Delete("/ammunition/{id}", ammoHandler.DeleteAmmunition)

			r.Post("/shipments", shipmentHandler.CreateShipment)
			r.Post("/shipments/{id}/status", shipmentHandler.UpdateShipmentStatus)
			r.Delete("/shipments/{id}", shipmentHandler.DeleteShipment)

			r.Post("/scenarios", scenarioHandler.CreateScenario)
			r.Put("/scenarios/{id}", scenarioHandler.UpdateScenario)
			r.Delete("/scenarios/{id}", scenarioHandler.DeleteScenario)

			r.Post("/usage", usageHandler.CreateUsage)
			r.Delete("/usage/{id}", usageHandler.DeleteUsage)

			r.Post("/maintenance", maintenanceHandler.CreateMaintenance)
			r.Put("/maintenance/{id}", maintenanceHandler.UpdateMaintenance)
			r.Delete("/maintenance/{id}", maintenanceHandler.DeleteMaintenance)

			r.Post("/alerts", alertHandler.CreateAlert)
			r.Put("/alerts/{id}", alertHandler.UpdateAlert)
			r.Delete("/alerts/{id}", alertHandler.DeleteAlert)

			r.Post("/ai/apply", aiHandler.Apply)

			r.Get("/audit", auditHandler.ListAudit)
			r.Get("/audit/export.csv", auditHandler.ExportAudit)

			r.Get("/users", userHandler.ListUsers)
			r.Post("/users", userHandler.CreateUser)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Put("/users/{id}", userHandler.UpdateUser)
			r.Delete("/users/{id}", userHandler.DeleteUser)
		})
	})

	return r
}
