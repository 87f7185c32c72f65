// Command api serves the headless JSON API. Unlike the dashboard it reads
// records from PostgreSQL when DATABASE_URL is set, so a separate ingest can
// feed it.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"gppulse/adapters/excel"
	"gppulse/adapters/postgres"
	"gppulse/analytics/normalize"
	"gppulse/app"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
	"gppulse/internal/config"
	"gppulse/internal/testkit"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	ds, err := loadDataset(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	svc := app.NewAnalysisService(metrics.DefaultRegistry(),
		app.WithMaxParallel(appConfig.Analysis.MaxParallel),
		app.WithForecastHorizon(appConfig.Analysis.ForecastHorizon),
		app.WithOutlierThreshold(appConfig.Analysis.OutlierThreshold),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handlers{svc: svc, ds: ds}
	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/practices/{ods}/report", h.practiceReport)
		r.Get("/network/{metric}", h.network)
		r.Get("/impact", h.impact)
	})

	addr := ":" + appConfig.Server.Port
	log.Printf("API listening on %s (%d records)", addr, ds.Len())
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("Server failed:", err)
	}
}

func loadDataset(ctx context.Context, appConfig *config.Config) (*metrics.Dataset, error) {
	if appConfig.Database.URL != "" {
		db, err := postgres.Connect(appConfig.Database.URL)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		repo := postgres.NewRecordRepository(db)
		records, err := repo.LatestRecords(ctx, core.PeriodWindow{})
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded %d records from database", len(records))
		return metrics.NewDataset(records), nil
	}

	if appConfig.Data.File != "" {
		inputs, err := excel.NewDataReader(appConfig.Data.File).ReadRawInputs(ctx)
		if err != nil {
			return nil, err
		}
		return normalize.New().NormalizeAll(inputs), nil
	}

	log.Println("No data source configured, using synthetic data")
	return testkit.New(42).Dataset(12, testkit.DefaultPeriods()), nil
}

type handlers struct {
	svc *app.AnalysisService
	ds  *metrics.Dataset
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"records":     h.ds.Len(),
		"fingerprint": h.ds.Fingerprint(),
	})
}

func (h *handlers) practiceReport(w http.ResponseWriter, r *http.Request) {
	ods, err := core.ParseODSCode(chi.URLParam(r, "ods"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	period, err := h.resolvePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.svc.BuildPracticeReport(r.Context(), h.ds, ods, period)
	if err != nil {
		if core.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, err)
		} else {
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) network(w http.ResponseWriter, r *http.Request) {
	key := metrics.MetricKey(chi.URLParam(r, "metric"))

	var window core.PeriodWindow
	if raw := r.URL.Query().Get("from"); raw != "" {
		p, err := core.ParsePeriod(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		window.From = p
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		p, err := core.ParsePeriod(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		window.To = p
	}

	overview, err := h.svc.BuildNetworkOverview(r.Context(), h.ds, key, window)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *handlers) impact(w http.ResponseWriter, r *http.Request) {
	period, err := h.resolvePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ranked, groups, err := h.svc.ImpactRanking(h.ds, period)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":   period,
		"ranked":   ranked,
		"by_group": groups,
	})
}

func (h *handlers) resolvePeriod(r *http.Request) (core.Period, error) {
	if raw := r.URL.Query().Get("period"); raw != "" {
		return core.ParsePeriod(raw)
	}
	periods := h.ds.Periods()
	if len(periods) == 0 {
		return core.Period{}, core.ErrPeriodNotFound
	}
	return periods[len(periods)-1], nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
