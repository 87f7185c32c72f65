package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gppulse/adapters/excel"
	"gppulse/adapters/postgres"
	"gppulse/analytics/normalize"
	"gppulse/app"
	"gppulse/domain/metrics"
	"gppulse/internal/config"
	"gppulse/internal/testkit"
	"gppulse/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx := context.Background()
	ds, err := loadDataset(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("Dataset loaded: %d records across %d practices (fingerprint %s)",
		ds.Len(), len(ds.Practices()), ds.Fingerprint())

	if appConfig.Database.URL != "" {
		if err := persistDataset(ctx, appConfig.Database.URL, ds); err != nil {
			log.Fatalf("Failed to persist dataset: %v", err)
		}
	}

	svc := app.NewAnalysisService(metrics.DefaultRegistry(),
		app.WithMaxParallel(appConfig.Analysis.MaxParallel),
		app.WithForecastHorizon(appConfig.Analysis.ForecastHorizon),
		app.WithOutlierThreshold(appConfig.Analysis.OutlierThreshold),
	)

	server := ui.NewServer(svc, ds)
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadDataset reads the configured extract, or falls back to deterministic
// synthetic data so the dashboard runs without one.
func loadDataset(ctx context.Context, appConfig *config.Config) (*metrics.Dataset, error) {
	if appConfig.Data.File == "" {
		log.Println("No DATA_FILE configured, using synthetic data")
		kit := testkit.New(42)
		return kit.Dataset(12, testkit.DefaultPeriods()), nil
	}

	log.Printf("Reading extract from %s", appConfig.Data.File)
	reader := excel.NewDataReader(appConfig.Data.File)
	inputs, err := reader.ReadRawInputs(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.New().NormalizeAll(inputs), nil
}

func persistDataset(ctx context.Context, databaseURL string, ds *metrics.Dataset) error {
	db, err := postgres.Connect(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.InitSchema(ctx, db); err != nil {
		return err
	}

	repo := postgres.NewRecordRepository(db)
	if err := repo.SaveRecords(ctx, ds.Records()); err != nil {
		return err
	}
	log.Printf("Persisted %d records", ds.Len())
	return nil
}
