// Package handler exposes the scoring engine over HTTP. Handlers fetch the
// record snapshot from the provider, run the engine, optionally persist the
// result, and return plain structured JSON for the presentation layer.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riskscope/riskscope/internal/dread"
	"github.com/riskscope/riskscope/internal/history"
	"github.com/riskscope/riskscope/internal/records"
	"github.com/riskscope/riskscope/internal/scoring"
	"github.com/riskscope/riskscope/internal/stride"
	"github.com/riskscope/riskscope/pkg/provider"
	"go.uber.org/zap"
)

// TenantSubject is the history subject used for whole-tenant runs.
const TenantSubject = "tenant"

// Fetcher delivers record snapshots from the provider. *provider.Client
// satisfies this interface; tests supply a stub.
type Fetcher interface {
	Tickets(ctx context.Context, q provider.TicketQuery) ([]records.Incident, error)
	Credentials(ctx context.Context, q provider.CredentialQuery) ([]records.CredentialExposure, error)
	Brands(ctx context.Context) ([]records.Brand, error)
}

// ScoreHandler handles the scoring API routes.
type ScoreHandler struct {
	composer *scoring.Composer
	fetcher  Fetcher
	store    history.Store
	logger   *zap.Logger
}

// NewScoreHandler creates a ScoreHandler. store may be nil to disable
// history persistence.
func NewScoreHandler(composer *scoring.Composer, fetcher Fetcher, store history.Store, logger *zap.Logger) *ScoreHandler {
	return &ScoreHandler{composer: composer, fetcher: fetcher, store: store, logger: logger}
}

// Register mounts the scoring routes on the given group.
func (h *ScoreHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/score", h.GetScore)
	rg.GET("/score/brands", h.GetBrandScores)
	rg.GET("/score/history", h.GetHistory)
	rg.GET("/priorities", h.GetPriorities)
	rg.GET("/classification", h.GetClassification)
}

// snapshot fetches the incident and exposure collections for the request's
// date range.
func (h *ScoreHandler) snapshot(c *gin.Context) (scoring.Input, bool) {
	days := intQuery(c, "days", 30)
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	incidents, err := h.fetcher.Tickets(c.Request.Context(), provider.TicketQuery{Start: start, End: end})
	if err != nil {
		h.logger.Error("fetch tickets", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider tickets fetch failed"})
		return scoring.Input{}, false
	}

	exposures, err := h.fetcher.Credentials(c.Request.Context(), provider.CredentialQuery{Start: start, End: end})
	if err != nil {
		h.logger.Error("fetch credentials", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider credentials fetch failed"})
		return scoring.Input{}, false
	}

	return scoring.Input{
		Incidents: incidents,
		Exposures: exposures,
		// The provider has no complaints endpoint; the period's complaint
		// count arrives from the caller.
		Complaints: intQuery(c, "complaints", 0),
	}, true
}

// GetScore computes the tenant-level risk score for the requested window.
func (h *ScoreHandler) GetScore(c *gin.Context) {
	in, ok := h.snapshot(c)
	if !ok {
		return
	}

	result := h.composer.Score(TenantSubject, in)
	RecordScoringRun("tenant")
	h.persist(c.Request.Context(), TenantSubject, result)

	c.JSON(http.StatusOK, result)
}

// GetBrandScores computes one score per brand (per-brand mode).
func (h *ScoreHandler) GetBrandScores(c *gin.Context) {
	brands, err := h.fetcher.Brands(c.Request.Context())
	if err != nil {
		h.logger.Error("fetch brands", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider brands fetch failed"})
		return
	}

	in, ok := h.snapshot(c)
	if !ok {
		return
	}

	results := h.composer.ScoreBrands(brands, in)
	RecordScoringRun("brand")
	for _, r := range results {
		h.persist(c.Request.Context(), r.Subject, r)
	}

	c.JSON(http.StatusOK, gin.H{"brands": results, "count": len(results)})
}

// GetPriorities returns the DREAD ranking for the window, truncated to the
// top-N (default 10).
func (h *ScoreHandler) GetPriorities(c *gin.Context) {
	in, ok := h.snapshot(c)
	if !ok {
		return
	}

	topN := intQuery(c, "top", 10)
	cfg := h.composer.Config()
	ranking := dread.Prioritize(in.Incidents, &cfg.Dread, h.composer.Taxonomy(), topN)

	c.JSON(http.StatusOK, ranking)
}

// GetClassification returns the STRIDE distribution for the window.
func (h *ScoreHandler) GetClassification(c *gin.Context) {
	in, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, stride.Classify(in.Incidents, h.composer.Taxonomy()))
}

// GetHistory lists persisted scoring runs, newest first.
func (h *ScoreHandler) GetHistory(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "score history is not enabled"})
		return
	}

	recs, err := h.store.List(c.Request.Context(), c.Query("subject"), intQuery(c, "limit", 50))
	if err != nil {
		h.logger.Error("list score history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": recs, "count": len(recs)})
}

func (h *ScoreHandler) persist(ctx context.Context, subject string, result *scoring.ScoreResult) {
	if h.store == nil {
		return
	}
	rec := &history.Record{Subject: subject, Result: result}
	if err := h.store.Save(ctx, rec); err != nil {
		// Persistence is best-effort; the computed result is still served.
		h.logger.Warn("save score record", zap.String("subject", subject), zap.Error(err))
		return
	}
	RecordHistorySave()
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
