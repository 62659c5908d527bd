package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fyrsmithlabs/insightd/internal/insight"
)

// PutEmbedding stores or replaces the vector and metadata for an insight.
// Replace-on-write: one vector per insight id.
func (s *SQLiteStore) PutEmbedding(ctx context.Context, id string, vec []float32, meta insight.EmbeddingMetadata) error {
	if len(vec) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}
	if meta.Dimensions != len(vec) {
		return fmt.Errorf("metadata dimensions %d do not match vector length %d", meta.Dimensions, len(vec))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (insight_id, vector, provider, model, dimensions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(insight_id) DO UPDATE SET
			vector = excluded.vector,
			provider = excluded.provider,
			model = excluded.model,
			dimensions = excluded.dimensions,
			created_at = excluded.created_at`,
		id, encodeVector(vec), meta.Provider, meta.Model, meta.Dimensions, meta.CreatedAt)
	if err != nil {
		return fmt.Errorf("putting embedding: %w", err)
	}
	return nil
}

// GetEmbedding returns the stored vector and metadata, or
// insight.ErrNoEmbedding when the insight has no vector.
func (s *SQLiteStore) GetEmbedding(ctx context.Context, id string) ([]float32, *insight.EmbeddingMetadata, error) {
	var blob []byte
	var meta insight.EmbeddingMetadata
	err := s.db.QueryRowContext(ctx, `
		SELECT vector, provider, model, dimensions, created_at
		FROM embeddings WHERE insight_id = ?`, id).
		Scan(&blob, &meta.Provider, &meta.Model, &meta.Dimensions, &meta.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, insight.ErrNoEmbedding
	}
	if err != nil {
		return nil, nil, fmt.Errorf("getting embedding: %w", err)
	}

	vec, err := decodeVector(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding embedding: %w", err)
	}
	return vec, &meta, nil
}

// AllEmbeddings returns every stored vector keyed by insight id.
func (s *SQLiteStore) AllEmbeddings(ctx context.Context) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT insight_id, vector FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("listing embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float32)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}
		out[id] = vec
	}
	return out, rows.Err()
}

// encodeVector packs float32 values as little-endian bytes for BLOB
// storage.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a little-endian float32 BLOB.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}
