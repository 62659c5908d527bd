package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

const insightColumns = `id, type, claim, reasoning, context, limitations, source,
	confidence, tags, reinforcement_count, condition, avoid,
	created_at, updated_at, last_retrieved_at`

// PutInsight durably creates a validated insight together with its ledger
// entries in one transaction. Validation failures are rejected before
// anything is written.
func (s *SQLiteStore) PutInsight(ctx context.Context, ins *insight.Insight, entries []insight.HistoryEntry) error {
	if err := ins.Validate(); err != nil {
		return err
	}
	tags, err := json.Marshal(ins.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO insights (`+insightColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ins.ID, string(ins.Type), ins.Claim, ins.Reasoning, ins.Context,
			ins.Limitations, ins.Source, ins.Confidence, string(tags),
			ins.ReinforcementCount, ins.Condition, boolToInt(ins.Avoid),
			ins.CreatedAt, ins.UpdatedAt, ins.LastRetrievedAt)
		if err != nil {
			return fmt.Errorf("inserting insight: %w", err)
		}
		return appendHistoryTx(ctx, tx, entries)
	})
}

// GetInsight returns the insight or insight.ErrNotFound.
func (s *SQLiteStore) GetInsight(ctx context.Context, id string) (*insight.Insight, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+insightColumns+` FROM insights WHERE id = ?`, id)
	ins, err := scanInsight(row)
	if err == sql.ErrNoRows {
		return nil, insight.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting insight: %w", err)
	}
	return ins, nil
}

// UpdateInsight rewrites an existing insight row and appends its ledger
// entries in one transaction.
func (s *SQLiteStore) UpdateInsight(ctx context.Context, ins *insight.Insight, entries []insight.HistoryEntry) error {
	if err := ins.Validate(); err != nil {
		return err
	}
	tags, err := json.Marshal(ins.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE insights SET
				type = ?, claim = ?, reasoning = ?, context = ?,
				limitations = ?, source = ?, confidence = ?, tags = ?,
				reinforcement_count = ?, condition = ?, avoid = ?,
				updated_at = ?, last_retrieved_at = ?
			WHERE id = ?`,
			string(ins.Type), ins.Claim, ins.Reasoning, ins.Context,
			ins.Limitations, ins.Source, ins.Confidence, string(tags),
			ins.ReinforcementCount, ins.Condition, boolToInt(ins.Avoid),
			ins.UpdatedAt, ins.LastRetrievedAt, ins.ID)
		if err != nil {
			return fmt.Errorf("updating insight: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking update result: %w", err)
		}
		if affected == 0 {
			return insight.ErrNotFound
		}
		return appendHistoryTx(ctx, tx, entries)
	})
}

// DeleteInsight removes the insight row; embedding and history rows go with
// it via ON DELETE CASCADE. Unknown ids return insight.ErrNotFound.
func (s *SQLiteStore) DeleteInsight(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM insights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting insight: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return insight.ErrNotFound
	}
	return nil
}

// MergeInsights rewrites the target row, appends the merge ledger entries,
// and deletes the source row, all in one transaction. The source's
// embedding, metadata, and history are cascade-deleted with it.
func (s *SQLiteStore) MergeInsights(ctx context.Context, target *insight.Insight, sourceID string, entries []insight.HistoryEntry) error {
	if err := target.Validate(); err != nil {
		return err
	}
	tags, err := json.Marshal(target.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE insights SET
				claim = ?, reasoning = ?, confidence = ?, tags = ?,
				reinforcement_count = ?, updated_at = ?
			WHERE id = ?`,
			target.Claim, target.Reasoning, target.Confidence, string(tags),
			target.ReinforcementCount, target.UpdatedAt, target.ID)
		if err != nil {
			return fmt.Errorf("updating merge target: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking merge target update: %w", err)
		}
		if affected == 0 {
			return insight.ErrNotFound
		}

		if err := appendHistoryTx(ctx, tx, entries); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM insights WHERE id = ?`, sourceID)
		if err != nil {
			return fmt.Errorf("deleting merge source: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking merge source delete: %w", err)
		}
		if affected == 0 {
			return insight.ErrNotFound
		}
		return nil
	})
}

// ScanInsights returns all insights matching the filter, newest first.
func (s *SQLiteStore) ScanInsights(ctx context.Context, f insight.Filter) ([]*insight.Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights`
	var conds []string
	var args []any

	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, "type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.MinConfidence > 0 {
		conds = append(conds, "confidence >= ?")
		args = append(args, f.MinConfidence)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 && f.Tag == "" {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanning insights: %w", err)
	}
	defer rows.Close()

	var out []*insight.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning insight row: %w", err)
		}
		// Tag filtering happens on the decoded set; tags are stored as a
		// JSON array, not a relational column.
		if f.Tag != "" && !hasTag(ins.Tags, f.Tag) {
			continue
		}
		out = append(out, ins)
		if f.Tag != "" && f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, rows.Err()
}

// TouchRetrieved stamps last_retrieved_at on the given insights. UpdatedAt
// is deliberately untouched: retrieval is not a mutation of the record.
func (s *SQLiteStore) TouchRetrieved(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, at)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE insights SET last_retrieved_at = ? WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("touching retrieved insights: %w", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(row rowScanner) (*insight.Insight, error) {
	var ins insight.Insight
	var typ, tags string
	var avoid int
	var lastRetrieved sql.NullTime

	err := row.Scan(&ins.ID, &typ, &ins.Claim, &ins.Reasoning, &ins.Context,
		&ins.Limitations, &ins.Source, &ins.Confidence, &tags,
		&ins.ReinforcementCount, &ins.Condition, &avoid,
		&ins.CreatedAt, &ins.UpdatedAt, &lastRetrieved)
	if err != nil {
		return nil, err
	}

	ins.Type = insight.Type(typ)
	ins.Avoid = avoid != 0
	if err := json.Unmarshal([]byte(tags), &ins.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if lastRetrieved.Valid {
		t := lastRetrieved.Time
		ins.LastRetrievedAt = &t
	}
	return &ins, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
