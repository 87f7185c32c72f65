// Command cli renders a practice report as markdown on stdout. With no
// extract configured it runs against deterministic synthetic data, which
// makes it useful for smoke-testing the pipeline end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"gppulse/adapters/excel"
	"gppulse/analytics/normalize"
	"gppulse/app"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
	"gppulse/internal/testkit"
	"gppulse/ui"
)

func main() {
	_ = godotenv.Load()

	var (
		file      = flag.String("file", os.Getenv("DATA_FILE"), "extract path (.xlsx file or CSV directory)")
		odsFlag   = flag.String("ods", "", "ODS code of the practice to report on (default: first practice)")
		periodKey = flag.String("period", "", "reporting period as YYYY-MM (default: latest)")
		seed      = flag.Int64("seed", 42, "seed for synthetic data when no extract is given")
		asHTML    = flag.Bool("html", false, "emit HTML instead of markdown")
	)
	flag.Parse()

	if err := run(context.Background(), *file, *odsFlag, *periodKey, *seed, *asHTML); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file, odsFlag, periodKey string, seed int64, asHTML bool) error {
	ds, err := loadDataset(ctx, file, seed)
	if err != nil {
		return err
	}
	if ds.Len() == 0 {
		return fmt.Errorf("dataset is empty")
	}

	ods, err := resolvePractice(ds, odsFlag)
	if err != nil {
		return err
	}
	period, err := resolvePeriod(ds, periodKey)
	if err != nil {
		return err
	}

	svc := app.NewAnalysisService(metrics.DefaultRegistry())
	report, err := svc.BuildPracticeReport(ctx, ds, ods, period)
	if err != nil {
		return err
	}

	md := ui.BuildReportMarkdown(report, svc.Registry())
	if asHTML {
		os.Stdout.Write(ui.RenderReportHTML(md))
		return nil
	}
	fmt.Print(md)
	return nil
}

func loadDataset(ctx context.Context, file string, seed int64) (*metrics.Dataset, error) {
	if file == "" {
		kit := testkit.New(seed)
		return kit.Dataset(12, testkit.DefaultPeriods()), nil
	}
	inputs, err := excel.NewDataReader(file).ReadRawInputs(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.New().NormalizeAll(inputs), nil
}

func resolvePractice(ds *metrics.Dataset, odsFlag string) (core.ODSCode, error) {
	if odsFlag != "" {
		return core.ParseODSCode(odsFlag)
	}
	practices := ds.Practices()
	if len(practices) == 0 {
		return "", fmt.Errorf("dataset has no practices")
	}
	return practices[0], nil
}

func resolvePeriod(ds *metrics.Dataset, periodKey string) (core.Period, error) {
	if periodKey != "" {
		return core.ParsePeriod(periodKey)
	}
	periods := ds.Periods()
	if len(periods) == 0 {
		return core.Period{}, fmt.Errorf("dataset has no periods")
	}
	return periods[len(periods)-1], nil
}
