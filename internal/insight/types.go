// Package insight implements the retrieval and consistency engine for
// persisted agent insights: lexical and semantic similarity, contradiction
// (tension) detection, relevance-ranked retrieval, pairwise merge, and the
// append-only history ledger behind them.
package insight

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors for insight operations.
var (
	ErrNotFound          = errors.New("insight not found")
	ErrEmptyClaim        = errors.New("insight claim cannot be empty")
	ErrInvalidType       = errors.New("invalid insight type")
	ErrInvalidConfidence = errors.New("confidence must be between 0.0 and 1.0")
	ErrSelfReference     = errors.New("merge source and target must differ")
	ErrNoEmbedding       = errors.New("insight has no embedding")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Type classifies what kind of claim an insight makes.
type Type string

const (
	// TypeBehavioral describes how the agent should act.
	TypeBehavioral Type = "behavioral"

	// TypePersonality describes a stable trait of the agent itself.
	TypePersonality Type = "personality"

	// TypeRelational describes a relationship with a person or system.
	TypeRelational Type = "relational"

	// TypePrinciple describes a value or rule the agent holds.
	TypePrinciple Type = "principle"

	// TypeSkill describes a learned capability.
	TypeSkill Type = "skill"

	// TypeTrigger describes a condition-bound reaction, optionally one to avoid.
	TypeTrigger Type = "trigger"
)

// AllTypes returns every valid insight type in declaration order.
func AllTypes() []Type {
	return []Type{TypeBehavioral, TypePersonality, TypeRelational, TypePrinciple, TypeSkill, TypeTrigger}
}

// Valid reports whether t is a member of the closed type enumeration.
func (t Type) Valid() bool {
	switch t {
	case TypeBehavioral, TypePersonality, TypeRelational, TypePrinciple, TypeSkill, TypeTrigger:
		return true
	}
	return false
}

// ParseType converts a string to a Type, case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// reinforcementRate is the fraction of remaining headroom gained per
// reinforcement: c' = c + (1-c)*rate. Confidence converges toward 1.0
// but never reaches it from below.
const reinforcementRate = 0.05

// Insight is a single persisted claim record.
//
// Confidence is always kept in [0.0, 1.0] and ReinforcementCount is
// monotonically non-decreasing while the record exists. Condition and Avoid
// are only meaningful for TypeTrigger insights.
type Insight struct {
	// ID is the unique insight identifier (UUID).
	ID string `json:"id"`

	// Type classifies the claim (behavioral, personality, relational,
	// principle, skill, trigger).
	Type Type `json:"type"`

	// Claim is the insight statement itself. Required.
	Claim string `json:"claim"`

	// Reasoning explains why the claim is believed.
	Reasoning string `json:"reasoning,omitempty"`

	// Context describes when the claim applies.
	Context string `json:"context,omitempty"`

	// Limitations records known caveats.
	Limitations string `json:"limitations,omitempty"`

	// Source records where the claim came from.
	Source string `json:"source,omitempty"`

	// Confidence is a score from 0.0 to 1.0 indicating reliability.
	Confidence float64 `json:"confidence"`

	// Tags are deduplicated labels for categorization.
	Tags []string `json:"tags,omitempty"`

	// ReinforcementCount tracks how many times the claim was re-confirmed.
	ReinforcementCount int `json:"reinforcement_count"`

	// Condition is the triggering condition (trigger insights only).
	Condition string `json:"condition,omitempty"`

	// Avoid marks the trigger as a reaction to suppress (trigger insights only).
	Avoid bool `json:"avoid,omitempty"`

	// CreatedAt is when the insight was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the insight was last modified. Never before CreatedAt.
	UpdatedAt time.Time `json:"updated_at"`

	// LastRetrievedAt is when the insight last appeared in ranked retrieval.
	LastRetrievedAt *time.Time `json:"last_retrieved_at,omitempty"`
}

// NewInsight creates an insight with a generated UUID and validated fields.
func NewInsight(typ Type, claim string, confidence float64) (*Insight, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	if strings.TrimSpace(claim) == "" {
		return nil, ErrEmptyClaim
	}
	if confidence < 0.0 || confidence > 1.0 {
		return nil, ErrInvalidConfidence
	}

	now := time.Now()
	return &Insight{
		ID:         uuid.New().String(),
		Type:       typ,
		Claim:      claim,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Validate checks the record's invariants. It is called before every
// durable write; an insight failing validation is never partially stored.
func (m *Insight) Validate() error {
	if m.ID == "" {
		return errors.New("insight ID cannot be empty")
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		return errors.New("invalid insight ID format")
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, m.Type)
	}
	if strings.TrimSpace(m.Claim) == "" {
		return ErrEmptyClaim
	}
	if m.Confidence < 0.0 || m.Confidence > 1.0 {
		return ErrInvalidConfidence
	}
	if m.ReinforcementCount < 0 {
		return errors.New("reinforcement count cannot be negative")
	}
	if m.UpdatedAt.Before(m.CreatedAt) {
		return errors.New("updated_at cannot precede created_at")
	}
	return nil
}

// Reinforce moves confidence a fixed fraction of the way toward 1.0 and
// increments the reinforcement count. Reinforcing a confidence-1.0 insight
// leaves it at 1.0.
func (m *Insight) Reinforce() {
	m.Confidence += (1.0 - m.Confidence) * reinforcementRate
	if m.Confidence > 1.0 {
		m.Confidence = 1.0
	}
	m.ReinforcementCount++
	m.UpdatedAt = time.Now()
}

// NormalizeTags returns a sorted copy of tags with duplicates and empty
// entries removed.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// EmbeddingMetadata records which provider and model produced an insight's
// vector. One row per insight id, cascade-deleted with the insight.
type EmbeddingMetadata struct {
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stale reports whether the vector was produced by a different
// provider/model pair than the one currently configured, meaning it needs
// re-encoding before semantic scores are comparable.
func (m *EmbeddingMetadata) Stale(provider, model string) bool {
	return m.Provider != provider || m.Model != model
}

// ChangeKind categorizes a history ledger entry.
type ChangeKind string

const (
	ChangeCreate    ChangeKind = "create"
	ChangeUpdate    ChangeKind = "update"
	ChangeReinforce ChangeKind = "reinforce"
	ChangeMerge     ChangeKind = "merge"
)

// FieldWildcard marks a history entry that describes the whole record
// rather than a single field.
const FieldWildcard = "*"

// HistoryEntry is one append-only ledger row: a field-level diff of a
// single mutation. Entries are never mutated or deleted except by cascade
// when the owning insight is deleted.
type HistoryEntry struct {
	// ID is the ledger row id, assigned by the store in insertion order.
	ID int64 `json:"id"`

	// InsightID is the insight this entry describes.
	InsightID string `json:"insight_id"`

	// Field is the changed field name, or FieldWildcard for the whole record.
	Field string `json:"field"`

	// OldValue is the prior value, nil on create.
	OldValue *string `json:"old_value"`

	// NewValue is the value after the mutation, nil on deletion-like changes.
	NewValue *string `json:"new_value"`

	// Kind is the mutation category.
	Kind ChangeKind `json:"kind"`

	// Source annotates the mutation origin, e.g. the id of a merged-in record.
	Source string `json:"source,omitempty"`

	// CreatedAt is when the mutation happened.
	CreatedAt time.Time `json:"created_at"`
}

// ConflictResult is one potential contradiction between a candidate claim
// and an existing insight. Derived, never persisted.
type ConflictResult struct {
	// Insight is the existing record that may contradict the candidate.
	Insight *Insight `json:"insight"`

	// Similarity is the lexical Jaccard similarity of the two claims.
	Similarity float64 `json:"similarity"`

	// TensionScore is the opposing-vocabulary contradiction score.
	TensionScore float64 `json:"tension_score"`

	// TensionReason lists the matched opposing pairs, human-readable.
	TensionReason string `json:"tension_reason,omitempty"`

	// ConflictScore is the weighted combination used for ranking.
	ConflictScore float64 `json:"conflict_score"`
}

// ScoredInsight is one ranked retrieval result. Derived, never persisted.
type ScoredInsight struct {
	// Insight is the retrieved record.
	Insight *Insight `json:"insight"`

	// Similarity is the cosine similarity with the query, 0 when the
	// record was scored by the non-semantic fallback.
	Similarity float64 `json:"similarity"`

	// Score is the final ranking score.
	Score float64 `json:"score"`
}

// strptr returns a pointer to s, for nullable history values.
func strptr(s string) *string {
	return &s
}
