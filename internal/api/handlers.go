package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/intent-engine/internal/aggregator"
	"github.com/jonesrussell/intent-engine/internal/database"
	"github.com/jonesrussell/intent-engine/internal/decision"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/logger"
	"github.com/jonesrussell/intent-engine/internal/pipeline"
)

const (
	defaultSignalsPageSize = 50
	companyQuerySize       = 100
)

// PipelineFactory builds a pipeline from the current rule set. The engine is
// immutable once constructed, so rule changes take effect by building a fresh
// pipeline on the next processing request.
type PipelineFactory func(rules []domain.DecisionRule) (*pipeline.Pipeline, error)

// SignalSink pushes decided signals and aggregates to the dashboard index
// and serves company reads from it. Nil when the Elasticsearch sink is
// disabled; indexing failures are logged, never surfaced to the caller.
type SignalSink interface {
	BulkIndexSignals(ctx context.Context, signals []*domain.Signal) error
	BulkIndexAggregates(ctx context.Context, aggregates []*domain.CompanyAggregate) error
	QuerySignalsByCompany(ctx context.Context, companyKey string, size int) ([]*domain.Signal, error)
}

// EnrichmentHealth probes the enrichment service. Nil when enrichment is
// disabled.
type EnrichmentHealth interface {
	Health(ctx context.Context) error
}

// Handler handles HTTP requests for the intent engine API
type Handler struct {
	factory     PipelineFactory
	rulesRepo   *database.RulesRepository
	signalsRepo *database.SignalsRepository
	aggregator  *aggregator.Aggregator
	sink        SignalSink
	enrichment  EnrichmentHealth
	logger      logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	factory PipelineFactory,
	rulesRepo *database.RulesRepository,
	signalsRepo *database.SignalsRepository,
	agg *aggregator.Aggregator,
	sink SignalSink,
	enrichment EnrichmentHealth,
	log logger.Logger,
) *Handler {
	return &Handler{
		factory:     factory,
		rulesRepo:   rulesRepo,
		signalsRepo: signalsRepo,
		aggregator:  agg,
		sink:        sink,
		enrichment:  enrichment,
		logger:      log,
	}
}

// Process handles POST /api/v1/process
func (h *Handler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid process request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Processing record batch", logger.Int("batch_size", len(req.Records)))

	rules, err := h.rulesRepo.List(c.Request.Context(), true)
	if err != nil {
		h.logger.Error("Failed to load decision rules", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load decision rules"})
		return
	}

	pipe, err := h.factory(rules)
	if err != nil {
		var cfgErr *domain.InvalidRuleConfigError
		if errors.As(err, &cfgErr) {
			h.logger.Error("Invalid rule configuration", logger.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to build pipeline", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build pipeline"})
		return
	}

	result, err := pipe.Run(c.Request.Context(), req.Records)
	if err != nil {
		h.logger.Error("Pipeline run failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.signalsRepo.SaveBatch(c.Request.Context(), result.Signals); err != nil {
		h.logger.Error("Failed to persist signals", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist signals"})
		return
	}
	s := result.Summary
	if err := h.signalsRepo.SaveRunSummary(
		c.Request.Context(),
		s.StartedAt, s.DurationMs,
		s.RecordsIn, s.RecordsDropped, s.DuplicatesMerged, s.EnrichmentMisses, s.Companies,
		s.TierCounts,
	); err != nil {
		h.logger.Warn("Failed to persist run summary", logger.Error(err))
	}

	if h.sink != nil {
		if err := h.sink.BulkIndexSignals(c.Request.Context(), result.Signals); err != nil {
			h.logger.Warn("Failed to index signals", logger.Error(err))
		}
		if err := h.sink.BulkIndexAggregates(c.Request.Context(), result.Aggregates); err != nil {
			h.logger.Warn("Failed to index aggregates", logger.Error(err))
		}
	}

	h.logger.Info("Batch processed",
		logger.Int("records_in", s.RecordsIn),
		logger.Int("records_dropped", s.RecordsDropped),
		logger.Int("companies", s.Companies),
	)

	c.JSON(http.StatusOK, ProcessResponse{
		Signals:    result.Signals,
		Aggregates: result.Aggregates,
		Summary:    result.Summary,
	})
}

// ListSignals handles GET /api/v1/signals
func (h *Handler) ListSignals(c *gin.Context) {
	priority := domain.PriorityLevel(c.Query("priority"))
	if priority != "" {
		switch priority {
		case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
	}

	limit := defaultSignalsPageSize
	if limitParam := c.Query("limit"); limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 {
			limit = n
		}
	}

	signals, err := h.signalsRepo.ListByPriority(c.Request.Context(), priority, limit)
	if err != nil {
		h.logger.Error("Failed to list signals", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list signals"})
		return
	}

	c.JSON(http.StatusOK, SignalsListResponse{
		Signals: signals,
		Total:   len(signals),
	})
}

// GetCompany handles GET /api/v1/companies/:key
func (h *Handler) GetCompany(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company key is required"})
		return
	}

	signals, err := h.companySignals(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("Failed to load company signals",
			logger.String("company_key", key), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load company signals"})
		return
	}
	if len(signals) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	aggregates := h.aggregator.Aggregate(signals)
	c.JSON(http.StatusOK, CompanyResponse{Aggregate: aggregates[0]})
}

// companySignals reads a company's signals from the dashboard index when a
// sink is configured, falling back to the database when the index is
// unreachable or has nothing for the key.
func (h *Handler) companySignals(ctx context.Context, key string) ([]*domain.Signal, error) {
	if h.sink != nil {
		signals, err := h.sink.QuerySignalsByCompany(ctx, key, companyQuerySize)
		if err != nil {
			h.logger.Warn("Company index query failed, using database",
				logger.String("company_key", key), logger.Error(err))
		} else if len(signals) > 0 {
			return signals, nil
		}
	}
	return h.signalsRepo.ListByCompany(ctx, key)
}

// ListRules handles GET /api/v1/rules
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.rulesRepo.List(c.Request.Context(), false)
	if err != nil {
		h.logger.Error("Failed to list rules", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rules"})
		return
	}

	c.JSON(http.StatusOK, RulesListResponse{
		Rules: rules,
		Total: len(rules),
	})
}

// CreateRule handles POST /api/v1/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid create rule request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := req.toDomain()
	if err := decision.ValidateRule(rule); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.rulesRepo.Create(c.Request.Context(), &rule); err != nil {
		h.logger.Error("Failed to create rule", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rule"})
		return
	}

	h.logger.Info("Rule created", logger.Int("id", rule.ID), logger.String("name", rule.Name))

	c.JSON(http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/v1/rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	ruleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid update rule request", logger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.rulesRepo.GetByID(c.Request.Context(), ruleID)
	if err != nil {
		if errors.Is(err, database.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		h.logger.Error("Failed to get rule", logger.Int("id", ruleID), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rule"})
		return
	}

	rule.Name = req.Name
	rule.Conditions = req.Conditions
	rule.Action = req.Action
	rule.PriorityRank = req.PriorityRank
	rule.Enabled = req.Enabled

	if err := decision.ValidateRule(*rule); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.rulesRepo.Update(c.Request.Context(), rule); err != nil {
		h.logger.Error("Failed to update rule", logger.Int("id", ruleID), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update rule"})
		return
	}

	h.logger.Info("Rule updated", logger.Int("id", ruleID), logger.String("name", rule.Name))

	c.JSON(http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/v1/rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	ruleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	if err := h.rulesRepo.Delete(c.Request.Context(), ruleID); err != nil {
		if errors.Is(err, database.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		h.logger.Error("Failed to delete rule", logger.Int("id", ruleID), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete rule"})
		return
	}

	h.logger.Info("Rule deleted", logger.Int("id", ruleID))

	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	byTier, err := h.signalsRepo.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	total := 0
	for _, n := range byTier {
		total += n
	}
	highPct := 0.0
	if total > 0 {
		highPct = float64(byTier[string(domain.PriorityHigh)]) / float64(total)
	}

	c.JSON(http.StatusOK, StatsResponse{
		Total:   total,
		ByTier:  byTier,
		HighPct: highPct,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "intent-engine",
	})
}

// ReadyCheck handles GET /ready
func (h *Handler) ReadyCheck(c *gin.Context) {
	if _, err := h.signalsRepo.Stats(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": gin.H{"sqlite": err.Error()},
		})
		return
	}

	checks := gin.H{"sqlite": "ok"}
	if h.enrichment != nil {
		// An enrichment outage degrades scoring to heuristic-only; it does
		// not block readiness.
		if err := h.enrichment.Health(c.Request.Context()); err != nil {
			checks["enrichment"] = err.Error()
		} else {
			checks["enrichment"] = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}
