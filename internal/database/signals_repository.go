package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/intent-engine/internal/domain"
)

// SignalsRepository persists decided signals and run summaries. Signals are
// immutable once decided, so writes are insert-or-replace keyed by the
// deterministic signal id.
type SignalsRepository struct {
	db *sqlx.DB
}

// NewSignalsRepository creates a new signals repository.
func NewSignalsRepository(db *sqlx.DB) *SignalsRepository {
	return &SignalsRepository{db: db}
}

// SaveBatch stores a set of decided signals in one transaction.
func (r *SignalsRepository) SaveBatch(ctx context.Context, signals []*domain.Signal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin signals tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO signals (
			id, company, company_key, source_type, title, description,
			content_snippet, url, published_at, signal_strength,
			confidence_level, sentiment_score, relevance_score,
			engagement_score, intent_label, entities, enriched,
			matched_rule, action, priority_level, follow_up_required
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare signal insert: %w", err)
	}
	defer stmt.Close()

	for _, sig := range signals {
		entities, err := json.Marshal(sig.Entities)
		if err != nil {
			return fmt.Errorf("encode entities for %s: %w", sig.ID, err)
		}
		var published sql.NullTime
		if sig.PublishedAt != nil {
			published = sql.NullTime{Time: *sig.PublishedAt, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			sig.ID, sig.Company, sig.CompanyKey, sig.SourceType, sig.Title,
			sig.Description, sig.ContentSnippet, sig.URL, published,
			sig.SignalStrength, sig.ConfidenceLevel, sig.SentimentScore,
			sig.RelevanceScore, sig.EngagementScore, sig.IntentLabel,
			string(entities), sig.Enriched, sig.MatchedRule, sig.Action,
			sig.PriorityLevel, sig.FollowUpRequired,
		); err != nil {
			return fmt.Errorf("insert signal %s: %w", sig.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit signals: %w", err)
	}
	return nil
}

type signalRow struct {
	domain.Signal
	Published sql.NullTime `db:"published_at"`
	Entities  string       `db:"entities"`
}

// ListByPriority returns stored signals filtered by tier, newest decisions
// first. An empty priority returns everything.
func (r *SignalsRepository) ListByPriority(ctx context.Context, priority domain.PriorityLevel, limit int) ([]*domain.Signal, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, company, company_key, source_type, title, description,
		       content_snippet, url, published_at, signal_strength,
		       confidence_level, sentiment_score, relevance_score,
		       engagement_score, intent_label, entities, enriched,
		       matched_rule, action, priority_level, follow_up_required
		FROM signals`
	args := []any{}
	if priority != "" {
		query += ` WHERE priority_level = ?`
		args = append(args, priority)
	}
	query += ` ORDER BY decided_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	var rows []signalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	signals := make([]*domain.Signal, 0, len(rows))
	for i := range rows {
		sig := rows[i].Signal
		sig.State = domain.StateDecided
		if rows[i].Published.Valid {
			t := rows[i].Published.Time
			sig.PublishedAt = &t
		}
		if err := json.Unmarshal([]byte(rows[i].Entities), &sig.Entities); err != nil {
			return nil, fmt.Errorf("decode entities for %s: %w", sig.ID, err)
		}
		signals = append(signals, &sig)
	}
	return signals, nil
}

// ListByCompany returns all stored signals for a company key, strongest
// first.
func (r *SignalsRepository) ListByCompany(ctx context.Context, companyKey string) ([]*domain.Signal, error) {
	var rows []signalRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, company, company_key, source_type, title, description,
		       content_snippet, url, published_at, signal_strength,
		       confidence_level, sentiment_score, relevance_score,
		       engagement_score, intent_label, entities, enriched,
		       matched_rule, action, priority_level, follow_up_required
		FROM signals
		WHERE company_key = ?
		ORDER BY signal_strength DESC, id ASC`, companyKey)
	if err != nil {
		return nil, fmt.Errorf("list signals for %s: %w", companyKey, err)
	}

	signals := make([]*domain.Signal, 0, len(rows))
	for i := range rows {
		sig := rows[i].Signal
		sig.State = domain.StateDecided
		if rows[i].Published.Valid {
			t := rows[i].Published.Time
			sig.PublishedAt = &t
		}
		if err := json.Unmarshal([]byte(rows[i].Entities), &sig.Entities); err != nil {
			return nil, fmt.Errorf("decode entities for %s: %w", sig.ID, err)
		}
		signals = append(signals, &sig)
	}
	return signals, nil
}

// SaveRunSummary stores the accounting for one batch run.
func (r *SignalsRepository) SaveRunSummary(
	ctx context.Context,
	startedAt time.Time,
	durationMs int64,
	recordsIn, recordsDropped, duplicatesMerged, enrichmentMisses, companies int,
	tierCounts map[string]int,
) error {
	tiers, err := json.Marshal(tierCounts)
	if err != nil {
		return fmt.Errorf("encode tier counts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO run_summaries (
			started_at, duration_ms, records_in, records_dropped,
			duplicates_merged, enrichment_misses, companies, tier_counts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		startedAt, durationMs, recordsIn, recordsDropped,
		duplicatesMerged, enrichmentMisses, companies, string(tiers),
	)
	if err != nil {
		return fmt.Errorf("save run summary: %w", err)
	}
	return nil
}

// Stats returns per-tier counts over all stored signals.
func (r *SignalsRepository) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT priority_level, COUNT(*) AS n FROM signals GROUP BY priority_level`)
	if err != nil {
		return nil, fmt.Errorf("signal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var priority string
		var n int
		if err := rows.Scan(&priority, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[priority] = n
	}
	return stats, rows.Err()
}
