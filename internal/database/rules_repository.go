package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/intent-engine/internal/domain"
)

// ErrRuleNotFound is returned when a rule id does not exist.
var ErrRuleNotFound = errors.New("decision rule not found")

// RulesRepository handles database operations for decision rules.
// Conditions are stored as a JSON array.
type RulesRepository struct {
	db *sqlx.DB
}

// NewRulesRepository creates a new rules repository.
func NewRulesRepository(db *sqlx.DB) *RulesRepository {
	return &RulesRepository{db: db}
}

type ruleRow struct {
	ID           int          `db:"id"`
	Name         string       `db:"name"`
	Conditions   string       `db:"conditions"`
	Action       string       `db:"action"`
	PriorityRank int          `db:"priority_rank"`
	Enabled      bool         `db:"enabled"`
	CreatedAt    sql.NullTime `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}

func (r ruleRow) toDomain() (domain.DecisionRule, error) {
	rule := domain.DecisionRule{
		ID:           r.ID,
		Name:         r.Name,
		Action:       domain.Action(r.Action),
		PriorityRank: r.PriorityRank,
		Enabled:      r.Enabled,
	}
	if r.CreatedAt.Valid {
		rule.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		rule.UpdatedAt = r.UpdatedAt.Time
	}
	if err := json.Unmarshal([]byte(r.Conditions), &rule.Conditions); err != nil {
		return rule, fmt.Errorf("decode conditions for rule %q: %w", r.Name, err)
	}
	return rule, nil
}

// Create inserts a new rule.
func (r *RulesRepository) Create(ctx context.Context, rule *domain.DecisionRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO decision_rules (name, conditions, action, priority_rank, enabled)
		VALUES (?, ?, ?, ?, ?)`,
		rule.Name, string(conditions), rule.Action, rule.PriorityRank, rule.Enabled,
	)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("rule insert id: %w", err)
	}
	rule.ID = int(id)
	return nil
}

// GetByID retrieves a rule by id.
func (r *RulesRepository) GetByID(ctx context.Context, id int) (*domain.DecisionRule, error) {
	var row ruleRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, conditions, action, priority_rank, enabled, created_at, updated_at
		FROM decision_rules WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("get rule: %w", err)
	}

	rule, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// List retrieves all rules ordered by priority rank descending.
func (r *RulesRepository) List(ctx context.Context, enabledOnly bool) ([]domain.DecisionRule, error) {
	query := `
		SELECT id, name, conditions, action, priority_rank, enabled, created_at, updated_at
		FROM decision_rules`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY priority_rank DESC, id ASC`

	var rows []ruleRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	rules := make([]domain.DecisionRule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Update modifies an existing rule.
func (r *RulesRepository) Update(ctx context.Context, rule *domain.DecisionRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE decision_rules
		SET name = ?, conditions = ?, action = ?, priority_rank = ?, enabled = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rule.Name, string(conditions), rule.Action, rule.PriorityRank, rule.Enabled, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrRuleNotFound, rule.ID)
	}
	return nil
}

// Delete removes a rule by id.
func (r *RulesRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM decision_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rule affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrRuleNotFound, id)
	}
	return nil
}

// Seed inserts the given rules if the table is empty, so a fresh database
// starts with the configured policy.
func (r *RulesRepository) Seed(ctx context.Context, rules []domain.DecisionRule) error {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM decision_rules`); err != nil {
		return fmt.Errorf("count rules: %w", err)
	}
	if count > 0 {
		return nil
	}
	for i := range rules {
		if err := r.Create(ctx, &rules[i]); err != nil {
			return err
		}
	}
	return nil
}
