package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gppulse/app"
	"gppulse/domain/analysis"
	"gppulse/domain/metrics"
)

// BuildReportMarkdown renders a practice report as a markdown document.
// Sections for which the report carries no data are omitted entirely.
func BuildReportMarkdown(report *app.PracticeReport, registry *metrics.Registry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s)\n\n", report.Name, report.ODSCode)
	fmt.Fprintf(&b, "Reporting period: **%s**\n\n", report.Period)
	fmt.Fprintf(&b, "Generated %s from dataset `%s`\n\n",
		report.GeneratedAt.Format("2006-01-02 15:04 MST"), shortFingerprint(string(report.Fingerprint)))

	if len(report.Rankings) > 0 {
		b.WriteString("## Rankings\n\n")
		b.WriteString("| Metric | National | ICB | PCN |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, key := range orderedKeys(registry, report.Rankings) {
			scopes := report.Rankings[key]
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				metricName(registry, key),
				rankCell(scopes, analysis.ScopeNational),
				rankCell(scopes, analysis.ScopeICB),
				rankCell(scopes, analysis.ScopePCN))
		}
		b.WriteString("\n")
	}

	if len(report.Consistency) > 0 {
		b.WriteString("## Consistency\n\n")
		b.WriteString("| Metric | Periods | Mean | Std dev | Score |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, key := range orderedKeys(registry, report.Consistency) {
			p := report.Consistency[key]
			fmt.Fprintf(&b, "| %s | %d | %.1f | %.2f | %.0f |\n",
				metricName(registry, key), p.Periods, p.Mean, p.StdDev, p.Score)
		}
		b.WriteString("\n")
	}

	if len(report.Forecasts) > 0 {
		b.WriteString("## Trends\n\n")
		for _, key := range orderedKeys(registry, report.Forecasts) {
			fc := report.Forecasts[key]
			fmt.Fprintf(&b, "- **%s**: %s (slope %+.2f per period, R² %.2f)\n",
				metricName(registry, key), fc.Trend, fc.Slope, fc.RSquared)
		}
		b.WriteString("\n")
	}

	if report.Impact != nil {
		b.WriteString("## Missed-call impact\n\n")
		verb := "saves"
		saved := report.Impact.CallsSaved
		if saved < 0 {
			verb = "loses"
			saved = -saved
		}
		fmt.Fprintf(&b, "Against the network-wide missed-call rate, this practice %s roughly **%.0f calls** over %d inbound calls (practice rate %.1f%%).\n\n",
			verb, saved, report.Impact.Volume, report.Impact.PracticeRate*100)
	}

	if outliers := flaggedOutliers(report); len(outliers) > 0 {
		b.WriteString("## Outliers\n\n")
		for _, key := range outliers {
			flag := report.Outliers[key]
			fmt.Fprintf(&b, "- **%s** sits %s the network mean (z = %.1f)\n",
				metricName(registry, key), flag.Direction, flag.ZScore)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderReportHTML converts report markdown into an HTML fragment
func RenderReportHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func metricName(registry *metrics.Registry, key metrics.MetricKey) string {
	if def, err := registry.Lookup(key); err == nil {
		return def.Name
	}
	return string(key)
}

// orderedKeys returns the map's keys in registry order so report sections
// are stable across runs
func orderedKeys[V any](registry *metrics.Registry, m map[metrics.MetricKey]V) []metrics.MetricKey {
	var keys []metrics.MetricKey
	for _, key := range registry.Keys() {
		if _, ok := m[key]; ok {
			keys = append(keys, key)
		}
	}
	// Anything not in the registry goes last, alphabetically
	var extra []metrics.MetricKey
	for key := range m {
		if _, err := registry.Lookup(key); err != nil {
			extra = append(extra, key)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

func rankCell(scopes map[analysis.Scope]analysis.RankingResult, scope analysis.Scope) string {
	res, ok := scopes[scope]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%d/%d (top %.0f%%)", res.Rank, res.Size, res.Percentile)
}

func flaggedOutliers(report *app.PracticeReport) []metrics.MetricKey {
	var keys []metrics.MetricKey
	for key, flag := range report.Outliers {
		if flag.IsOutlier {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
