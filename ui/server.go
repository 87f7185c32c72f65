// Package ui serves the analytics over HTTP: a JSON API for dashboards and
// an HTML report page per practice.
package ui

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"gppulse/app"
	"gppulse/domain/core"
	"gppulse/domain/metrics"
	"gppulse/internal"
)

// Server wraps the gin engine around an analysis service and a dataset.
// The dataset is swapped wholesale on re-ingest; handlers always read a
// consistent snapshot through currentDataset.
type Server struct {
	router *gin.Engine
	svc    *app.AnalysisService
	log    *internal.Logger

	mu sync.RWMutex
	ds *metrics.Dataset
}

// NewServer creates a server over the given service and dataset
func NewServer(svc *app.AnalysisService, ds *metrics.Dataset) *Server {
	s := &Server{
		router: gin.Default(),
		svc:    svc,
		log:    internal.DefaultLogger,
		ds:     ds,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.GET("/practices", s.handlePractices)
	api.GET("/practices/:ods/report", s.handlePracticeReport)
	api.GET("/metrics", s.handleMetrics)
	api.GET("/leaderboards/:metric", s.handleLeaderboards)
	api.GET("/network/:metric", s.handleNetwork)
	api.GET("/impact", s.handleImpact)

	s.router.GET("/report/:ods", s.handleReportPage)
}

// Router exposes the underlying engine for tests
func (s *Server) Router() *gin.Engine { return s.router }

// Start runs the server on addr
func (s *Server) Start(addr string) error {
	s.log.Info("serving practice analytics on http://%s", addr)
	return s.router.Run(addr)
}

// ReplaceDataset swaps in a freshly ingested dataset
func (s *Server) ReplaceDataset(ds *metrics.Dataset) {
	s.mu.Lock()
	s.ds = ds
	s.mu.Unlock()
	s.log.Info("dataset replaced: %d records, fingerprint %s", ds.Len(), ds.Fingerprint())
}

func (s *Server) currentDataset() *metrics.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

func (s *Server) handleHealth(c *gin.Context) {
	ds := s.currentDataset()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"records":     ds.Len(),
		"fingerprint": ds.Fingerprint(),
	})
}

func (s *Server) handlePractices(c *gin.Context) {
	ds := s.currentDataset()

	type practiceSummary struct {
		ODSCode core.ODSCode  `json:"ods_code"`
		Name    string        `json:"name"`
		PCN     core.PCNID    `json:"pcn_id"`
		ICB     core.ICBID    `json:"icb_id"`
		Periods []core.Period `json:"periods"`
	}

	var out []practiceSummary
	for _, ods := range ds.Practices() {
		records := ds.Practice(ods)
		if len(records) == 0 {
			continue
		}
		summary := practiceSummary{
			ODSCode: ods,
			Name:    records[len(records)-1].Name,
			PCN:     records[len(records)-1].PCN,
			ICB:     records[len(records)-1].ICB,
		}
		for _, rec := range records {
			summary.Periods = append(summary.Periods, rec.Period)
		}
		out = append(out, summary)
	}
	c.JSON(http.StatusOK, gin.H{"practices": out, "count": len(out)})
}

func (s *Server) handleMetrics(c *gin.Context) {
	registry := s.svc.Registry()
	defs := make([]metrics.MetricDefinition, 0, len(registry.Keys()))
	for _, key := range registry.Keys() {
		if def, err := registry.Lookup(key); err == nil {
			defs = append(defs, def)
		}
	}
	c.JSON(http.StatusOK, gin.H{"metrics": defs})
}

func (s *Server) handlePracticeReport(c *gin.Context) {
	report, ok := s.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleReportPage(c *gin.Context) {
	report, ok := s.buildReport(c)
	if !ok {
		return
	}
	md := BuildReportMarkdown(report, s.svc.Registry())
	body := RenderReportHTML(md)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, reportShell, report.Name, string(body))
}

// buildReport resolves the practice and period from the request and runs the
// full analysis. Period defaults to the latest in the dataset.
func (s *Server) buildReport(c *gin.Context) (*app.PracticeReport, bool) {
	ds := s.currentDataset()

	ods, err := core.ParseODSCode(c.Param("ods"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	period, ok := s.resolvePeriod(c, ds)
	if !ok {
		return nil, false
	}

	report, err := s.svc.BuildPracticeReport(c.Request.Context(), ds, ods, period)
	if err != nil {
		if core.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			s.log.Error("report for %s %s failed: %v", ods, period, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		}
		return nil, false
	}
	return report, true
}

func (s *Server) resolvePeriod(c *gin.Context, ds *metrics.Dataset) (core.Period, bool) {
	if raw := c.Query("period"); raw != "" {
		period, err := core.ParsePeriod(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return core.Period{}, false
		}
		return period, true
	}

	periods := ds.Periods()
	if len(periods) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset has no periods"})
		return core.Period{}, false
	}
	return periods[len(periods)-1], true
}

func (s *Server) handleLeaderboards(c *gin.Context) {
	ds := s.currentDataset()
	key := metrics.MetricKey(c.Param("metric"))

	topN := 10
	if raw := c.Query("top"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &topN); err != nil || topN < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a positive integer"})
			return
		}
	}

	consistent, volatile, err := s.svc.Leaderboards(ds, key, topN)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metric":          key,
		"most_consistent": consistent,
		"most_volatile":   volatile,
	})
}

func (s *Server) handleNetwork(c *gin.Context) {
	ds := s.currentDataset()
	key := metrics.MetricKey(c.Param("metric"))

	window, ok := s.parseWindow(c)
	if !ok {
		return
	}

	overview, err := s.svc.BuildNetworkOverview(c.Request.Context(), ds, key, window)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) handleImpact(c *gin.Context) {
	ds := s.currentDataset()

	period, ok := s.resolvePeriod(c, ds)
	if !ok {
		return
	}

	ranked, groups, err := s.svc.ImpactRanking(ds, period)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":   period,
		"ranked":   ranked,
		"by_group": groups,
	})
}

func (s *Server) parseWindow(c *gin.Context) (core.PeriodWindow, bool) {
	var window core.PeriodWindow
	if raw := c.Query("from"); raw != "" {
		p, err := core.ParsePeriod(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return window, false
		}
		window.From = p
	}
	if raw := c.Query("to"); raw != "" {
		p, err := core.ParsePeriod(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return window, false
		}
		window.To = p
	}
	return window, true
}

const reportShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s - Practice Report</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
table { border-collapse: collapse; width: 100%%; margin: 1rem 0; }
th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; font-size: 14px; }
th { background: #f5f5f5; }
code { background: #f0f0f0; padding: 1px 4px; border-radius: 3px; }
</style>
</head>
<body>
%s
</body>
</html>`
