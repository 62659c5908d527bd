package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

// defaultChangelogLimit caps the global changelog when the caller does not
// specify a limit.
const defaultChangelogLimit = 50

// appendHistoryTx inserts ledger rows inside the mutation's transaction so
// the ledger cannot silently miss a committed mutation.
func appendHistoryTx(ctx context.Context, tx *sql.Tx, entries []insight.HistoryEntry) error {
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO history (insight_id, field, old_value, new_value, kind, source, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.InsightID, e.Field, e.OldValue, e.NewValue, string(e.Kind), e.Source, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("appending history entry: %w", err)
		}
	}
	return nil
}

// InsightHistory returns the full ledger for one insight, ascending by time
// then insertion order, so it reflects true mutation order.
func (s *SQLiteStore) InsightHistory(ctx context.Context, id string) ([]insight.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, insight_id, field, old_value, new_value, kind, source, created_at
		FROM history WHERE insight_id = ?
		ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

// Changelog returns recent ledger entries across all insights, newest
// first, optionally windowed to the last Days days.
func (s *SQLiteStore) Changelog(ctx context.Context, opts insight.ChangelogOptions) ([]insight.HistoryEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultChangelogLimit
	}

	query := `
		SELECT id, insight_id, field, old_value, new_value, kind, source, created_at
		FROM history`
	var args []any
	if opts.Days > 0 {
		query += ` WHERE created_at >= ?`
		args = append(args, time.Now().AddDate(0, 0, -opts.Days))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying changelog: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]insight.HistoryEntry, error) {
	var out []insight.HistoryEntry
	for rows.Next() {
		var e insight.HistoryEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.InsightID, &e.Field, &e.OldValue,
			&e.NewValue, &kind, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Kind = insight.ChangeKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
