package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/crucial707/ammotrack/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

const (
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8080"
	envWebPort  = "AMMOTRACK_WEB_PORT"
	envAPIURL   = "AMMOTRACK_API_URL"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	port := getEnv(envWebPort, defaultPort)
	api := newAPIClient(getEnv(envAPIURL, defaultAPI))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("web UI running", "url", "http://localhost:"+port, "api", api.base)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("web server stopped", "err", err)
		os.Exit(1)
	}
}

func newRouter(api *apiClient) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{CSP: middleware.WebContentSecurityPolicy}))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health (no auth, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/login", loginForm)
	r.Post("/login", loginSubmit(api))
	r.Get("/logout", logout)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", redirectDashboard)
		r.Get("/dashboard", dashboard(api))

		for _, res := range resources {
			mountResource(r, api, res)
		}

		r.Get("/shipments/{id}", shipmentDetail(api))
		r.Post("/shipments/{id}/status", shipmentStatus(api))
		r.Get("/scenarios/{id}/project", scenarioProjectForm(api))
		r.Post("/scenarios/{id}/project", scenarioProject(api))

		r.Get("/audit", auditList(api))
		r.Get("/export/firearms.csv", exportCSV(api, "/firearms/export.csv"))
		r.Get("/export/audit.csv", exportCSV(api, "/audit/export.csv"))

		r.Get("/ai", aiPage(api))
		r.Post("/ai/stock-balancing", aiStockBalancing(api))
		r.Post("/ai/rebalancing", aiRebalancing(api))
		r.Post("/ai/apply", aiApply(api))
	})

	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
