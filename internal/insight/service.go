package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/insightd/internal/logging"
)

// Filter restricts insight listing and scanning.
type Filter struct {
	// Types restricts to the given insight types. Empty means all.
	Types []Type

	// MinConfidence filters out insights below this confidence.
	MinConfidence float64

	// Tag restricts to insights carrying the tag.
	Tag string

	// Limit caps the result count. Zero means no cap.
	Limit int
}

// ChangelogOptions windows the global changelog query.
type ChangelogOptions struct {
	// Days restricts entries to the last N days. Zero means no window.
	Days int

	// Limit caps the result count. Defaults to 50.
	Limit int
}

// Store is the engine's view of the durable backing store.
//
// Mutating methods that accept history entries must commit the row change
// and the ledger rows in one transaction so the ledger cannot silently miss
// a committed mutation.
type Store interface {
	// PutInsight durably creates a validated insight with its ledger entries.
	PutInsight(ctx context.Context, ins *Insight, entries []HistoryEntry) error

	// GetInsight returns the insight or ErrNotFound.
	GetInsight(ctx context.Context, id string) (*Insight, error)

	// UpdateInsight rewrites an existing insight row with its ledger entries.
	UpdateInsight(ctx context.Context, ins *Insight, entries []HistoryEntry) error

	// DeleteInsight removes the insight; its embedding and history rows are
	// cascade-deleted. Deleting an unknown id returns ErrNotFound.
	DeleteInsight(ctx context.Context, id string) error

	// MergeInsights rewrites the target row, deletes the source row, and
	// appends the ledger entries, all in one transaction.
	MergeInsights(ctx context.Context, target *Insight, sourceID string, entries []HistoryEntry) error

	// ScanInsights returns all insights matching the filter.
	ScanInsights(ctx context.Context, f Filter) ([]*Insight, error)

	// PutEmbedding stores or replaces the insight's vector and metadata.
	PutEmbedding(ctx context.Context, id string, vec []float32, meta EmbeddingMetadata) error

	// GetEmbedding returns the insight's vector and metadata, or
	// ErrNoEmbedding when none is stored.
	GetEmbedding(ctx context.Context, id string) ([]float32, *EmbeddingMetadata, error)

	// AllEmbeddings returns every stored vector keyed by insight id.
	AllEmbeddings(ctx context.Context) (map[string][]float32, error)

	// TouchRetrieved stamps last_retrieved_at on the given insights.
	TouchRetrieved(ctx context.Context, ids []string, at time.Time) error

	// InsightHistory returns the full ledger for one insight, ascending by
	// time then insertion order.
	InsightHistory(ctx context.Context, id string) ([]HistoryEntry, error)

	// Changelog returns recent ledger entries across all insights,
	// descending.
	Changelog(ctx context.Context, opts ChangelogOptions) ([]HistoryEntry, error)
}

// Embedder produces fixed-dimension embedding vectors.
type Embedder interface {
	// Embed returns one vector per input text, each of Dimension() length.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the declared vector length.
	Dimension() int

	// Name returns the provider name, recorded in embedding metadata.
	Name() string

	// Model returns the model name, recorded in embedding metadata.
	Model() string
}

// Service orchestrates the engine operations against the store and the
// embedding provider. One Service per process invocation; all methods run
// synchronously to completion.
type Service struct {
	store    Store
	embedder Embedder
	logger   *logging.Logger
}

// NewService creates a service. The embedder may be nil, in which case every
// semantic path degrades to the lexical or fallback behavior.
func NewService(store Store, embedder Embedder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:    store,
		embedder: embedder,
		logger:   logger.Named("insight"),
	}
}

// ContributeOptions carries the optional fields of a contribution.
type ContributeOptions struct {
	Reasoning   string
	Context     string
	Limitations string
	Source      string
	Tags        []string
	Condition   string
	Avoid       bool

	// SkipConflictCheck bypasses conflict detection. The write proceeds
	// either way; conflicts are advisory.
	SkipConflictCheck bool

	// Conflict configures the advisory conflict check.
	Conflict ConflictOptions
}

// ContributeResult is the outcome of a conflict-checked contribution.
type ContributeResult struct {
	Insight *Insight `json:"insight"`

	// Conflicts lists existing insights that likely contradict the new
	// claim. Advisory only; the insight was written regardless.
	Conflicts []ConflictResult `json:"conflicts,omitempty"`
}

// Contribute validates and stores a new insight, running the conflict
// detector against the existing corpus first unless bypassed.
//
// Embedding generation is best-effort: a provider failure leaves the insight
// stored without a vector, which is a valid fallback-retrievable state, and
// is logged rather than returned.
func (s *Service) Contribute(ctx context.Context, typ Type, claim string, confidence float64, opts ContributeOptions) (*ContributeResult, error) {
	ins, err := NewInsight(typ, claim, confidence)
	if err != nil {
		return nil, err
	}
	ins.Reasoning = opts.Reasoning
	ins.Context = opts.Context
	ins.Limitations = opts.Limitations
	ins.Source = opts.Source
	ins.Tags = NormalizeTags(opts.Tags)
	if typ == TypeTrigger {
		ins.Condition = opts.Condition
		ins.Avoid = opts.Avoid
	}

	result := &ContributeResult{Insight: ins}

	if !opts.SkipConflictCheck {
		corpus, err := s.store.ScanInsights(ctx, Filter{})
		if err != nil {
			return nil, fmt.Errorf("scanning corpus for conflicts: %w", err)
		}
		result.Conflicts = DetectConflicts(claim, corpus, opts.Conflict)
		if len(result.Conflicts) > 0 {
			s.logger.Warn("contribution conflicts with existing insights",
				zap.String("insight_id", ins.ID),
				zap.Int("conflicts", len(result.Conflicts)),
				zap.Float64("top_score", result.Conflicts[0].ConflictScore))
		}
	}

	entry := HistoryEntry{
		InsightID: ins.ID,
		Field:     FieldWildcard,
		NewValue:  strptr(ins.Claim),
		Kind:      ChangeCreate,
		CreatedAt: ins.CreatedAt,
	}
	if err := s.store.PutInsight(ctx, ins, []HistoryEntry{entry}); err != nil {
		return nil, fmt.Errorf("storing insight: %w", err)
	}

	s.embedInsight(ctx, ins)

	s.logger.Info("insight contributed",
		zap.String("insight_id", ins.ID),
		zap.String("type", string(ins.Type)))
	return result, nil
}

// embedInsight generates and stores the claim vector. Failures are logged,
// not returned: a record with no embedding is a valid retrievable state.
func (s *Service) embedInsight(ctx context.Context, ins *Insight) {
	if s.embedder == nil {
		return
	}
	vectors, err := s.embedder.Embed(ctx, []string{ins.Claim})
	if err != nil {
		s.logger.Warn("embedding generation failed, insight stored without vector",
			zap.String("insight_id", ins.ID),
			zap.Error(err))
		return
	}
	meta := EmbeddingMetadata{
		Provider:   s.embedder.Name(),
		Model:      s.embedder.Model(),
		Dimensions: s.embedder.Dimension(),
		CreatedAt:  time.Now(),
	}
	if err := s.store.PutEmbedding(ctx, ins.ID, vectors[0], meta); err != nil {
		s.logger.Warn("storing embedding failed",
			zap.String("insight_id", ins.ID),
			zap.Error(err))
	}
}

// UpdateOptions carries the fields an update may change. Nil pointers leave
// the field untouched.
type UpdateOptions struct {
	Claim       *string
	Reasoning   *string
	Context     *string
	Limitations *string
	Source      *string
	Confidence  *float64
	Tags        *[]string
	Condition   *string
	Avoid       *bool
}

// Update applies a partial update, recording one ledger entry per field
// whose value actually changed. Re-embeds when the claim changed.
func (s *Service) Update(ctx context.Context, id string, opts UpdateOptions) (*Insight, error) {
	ins, err := s.store.GetInsight(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var entries []HistoryEntry
	record := func(field, oldVal, newVal string) {
		entries = append(entries, HistoryEntry{
			InsightID: id,
			Field:     field,
			OldValue:  strptr(oldVal),
			NewValue:  strptr(newVal),
			Kind:      ChangeUpdate,
			CreatedAt: now,
		})
	}

	claimChanged := false
	if opts.Claim != nil && *opts.Claim != ins.Claim {
		if strings.TrimSpace(*opts.Claim) == "" {
			return nil, ErrEmptyClaim
		}
		record("claim", ins.Claim, *opts.Claim)
		ins.Claim = *opts.Claim
		claimChanged = true
	}
	if opts.Reasoning != nil && *opts.Reasoning != ins.Reasoning {
		record("reasoning", ins.Reasoning, *opts.Reasoning)
		ins.Reasoning = *opts.Reasoning
	}
	if opts.Context != nil && *opts.Context != ins.Context {
		record("context", ins.Context, *opts.Context)
		ins.Context = *opts.Context
	}
	if opts.Limitations != nil && *opts.Limitations != ins.Limitations {
		record("limitations", ins.Limitations, *opts.Limitations)
		ins.Limitations = *opts.Limitations
	}
	if opts.Source != nil && *opts.Source != ins.Source {
		record("source", ins.Source, *opts.Source)
		ins.Source = *opts.Source
	}
	if opts.Confidence != nil && *opts.Confidence != ins.Confidence {
		if *opts.Confidence < 0.0 || *opts.Confidence > 1.0 {
			return nil, ErrInvalidConfidence
		}
		record("confidence", formatFloat(ins.Confidence), formatFloat(*opts.Confidence))
		ins.Confidence = *opts.Confidence
	}
	if opts.Tags != nil {
		newTags := NormalizeTags(*opts.Tags)
		if !equalTags(ins.Tags, newTags) {
			record("tags", joinTags(ins.Tags), joinTags(newTags))
			ins.Tags = newTags
		}
	}
	if opts.Condition != nil && *opts.Condition != ins.Condition {
		record("condition", ins.Condition, *opts.Condition)
		ins.Condition = *opts.Condition
	}
	if opts.Avoid != nil && *opts.Avoid != ins.Avoid {
		record("avoid", strconv.FormatBool(ins.Avoid), strconv.FormatBool(*opts.Avoid))
		ins.Avoid = *opts.Avoid
	}

	if len(entries) == 0 {
		return ins, nil
	}

	ins.UpdatedAt = now
	if err := s.store.UpdateInsight(ctx, ins, entries); err != nil {
		return nil, fmt.Errorf("updating insight: %w", err)
	}

	if claimChanged {
		s.embedInsight(ctx, ins)
	}
	return ins, nil
}

// Reinforce re-confirms an insight: confidence moves a fixed fraction of
// the remaining headroom toward 1.0 and the reinforcement count increments.
// One ledger entry records the confidence change, annotated with the new
// count.
func (s *Service) Reinforce(ctx context.Context, id string) (*Insight, error) {
	ins, err := s.store.GetInsight(ctx, id)
	if err != nil {
		return nil, err
	}

	before := ins.Confidence
	ins.Reinforce()

	entry := HistoryEntry{
		InsightID: id,
		Field:     "confidence",
		OldValue:  strptr(formatFloat(before)),
		NewValue:  strptr(formatFloat(ins.Confidence)),
		Kind:      ChangeReinforce,
		Source:    fmt.Sprintf("reinforcement %d", ins.ReinforcementCount),
		CreatedAt: ins.UpdatedAt,
	}
	if err := s.store.UpdateInsight(ctx, ins, []HistoryEntry{entry}); err != nil {
		return nil, fmt.Errorf("reinforcing insight: %w", err)
	}
	return ins, nil
}

// Merge folds the source insight into the target and deletes the source,
// including its embedding and metadata via cascading ownership. Only
// pairwise merge is defined; chained merges are the caller's responsibility.
//
// Field combination is deterministic: confidence = max, tags = deduplicated
// union, reinforcement count = sum, reasoning = target then source
// (semicolon-joined) when both are non-empty, claim = override when given,
// else the target's claim unchanged.
func (s *Service) Merge(ctx context.Context, sourceID, targetID, claimOverride string) (*Insight, error) {
	if sourceID == targetID {
		return nil, ErrSelfReference
	}
	source, err := s.store.GetInsight(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading merge source: %w", err)
	}
	target, err := s.store.GetInsight(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("loading merge target: %w", err)
	}

	now := time.Now()
	annotation := fmt.Sprintf("merged from %s", sourceID)
	var entries []HistoryEntry
	record := func(field, oldVal, newVal string) {
		entries = append(entries, HistoryEntry{
			InsightID: targetID,
			Field:     field,
			OldValue:  strptr(oldVal),
			NewValue:  strptr(newVal),
			Kind:      ChangeMerge,
			Source:    annotation,
			CreatedAt: now,
		})
	}

	claimChanged := false
	if claimOverride != "" && claimOverride != target.Claim {
		record("claim", target.Claim, claimOverride)
		target.Claim = claimOverride
		claimChanged = true
	}

	if source.Confidence > target.Confidence {
		record("confidence", formatFloat(target.Confidence), formatFloat(source.Confidence))
		target.Confidence = source.Confidence
	}

	mergedTags := NormalizeTags(append(append([]string{}, target.Tags...), source.Tags...))
	if !equalTags(target.Tags, mergedTags) {
		record("tags", joinTags(target.Tags), joinTags(mergedTags))
		target.Tags = mergedTags
	}

	if source.ReinforcementCount > 0 {
		sum := target.ReinforcementCount + source.ReinforcementCount
		record("reinforcement_count", strconv.Itoa(target.ReinforcementCount), strconv.Itoa(sum))
		target.ReinforcementCount = sum
	}

	if source.Reasoning != "" {
		merged := source.Reasoning
		if target.Reasoning != "" {
			merged = target.Reasoning + "; " + source.Reasoning
		}
		if merged != target.Reasoning {
			record("reasoning", target.Reasoning, merged)
			target.Reasoning = merged
		}
	}

	target.UpdatedAt = now
	if err := s.store.MergeInsights(ctx, target, sourceID, entries); err != nil {
		return nil, fmt.Errorf("merging insights: %w", err)
	}

	if claimChanged {
		s.embedInsight(ctx, target)
	}

	s.logger.Info("insights merged",
		zap.String("source_id", sourceID),
		zap.String("target_id", targetID),
		zap.Int("changed_fields", len(entries)))
	return target, nil
}

// Archive permanently deletes an insight along with its embedding and
// history. Archiving an unknown id is a documented no-op.
func (s *Service) Archive(ctx context.Context, id string) error {
	err := s.store.DeleteInsight(ctx, id)
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug("archive of unknown insight ignored", zap.String("insight_id", id))
			return nil
		}
		return fmt.Errorf("archiving insight: %w", err)
	}
	return nil
}

// List returns insights matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]*Insight, error) {
	return s.store.ScanInsights(ctx, f)
}

// Get returns a single insight or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Insight, error) {
	return s.store.GetInsight(ctx, id)
}

// CheckConflicts runs the conflict detector against a prospective claim
// without writing anything.
func (s *Service) CheckConflicts(ctx context.Context, claim string, opts ConflictOptions) ([]ConflictResult, error) {
	corpus, err := s.store.ScanInsights(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	return DetectConflicts(claim, corpus, opts), nil
}

// SearchByText embeds the query and returns insights ranked purely by
// cosine similarity, ignoring confidence and reinforcement history. Records
// without a stored vector are skipped. Provider failures propagate: unlike
// ranked retrieval there is no meaningful lexical fallback for a pure
// similarity search.
func (s *Service) SearchByText(ctx context.Context, query string, limit int) ([]ScoredInsight, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("similarity search requires an embedding provider")
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec := vectors[0]

	corpus, err := s.store.ScanInsights(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	stored, err := s.store.AllEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	if err := s.checkVectorDimensions(ctx, queryVec, stored); err != nil {
		return nil, err
	}

	results := make([]ScoredInsight, 0, len(corpus))
	for _, ins := range corpus {
		vec, ok := stored[ins.ID]
		if !ok {
			continue
		}
		sim, err := CosineSimilarity(queryVec, vec)
		if err != nil {
			return nil, fmt.Errorf("insight %s: %w", ins.ID, err)
		}
		results = append(results, ScoredInsight{Insight: ins, Similarity: sim, Score: sim})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// checkVectorDimensions rejects retrieval early when any stored vector's
// length disagrees with the query vector. The error names the offending
// insight, and when the stored embedding's metadata shows it came from a
// different provider/model than the one currently configured, that pair is
// included so the operator knows re-embedding is the remedy.
func (s *Service) checkVectorDimensions(ctx context.Context, queryVec []float32, stored map[string][]float32) error {
	for id, vec := range stored {
		if len(vec) == len(queryVec) {
			continue
		}
		err := fmt.Errorf("%w: insight %s has a %d-dimension vector, query has %d",
			ErrDimensionMismatch, id, len(vec), len(queryVec))
		if s.embedder != nil {
			if _, meta, metaErr := s.store.GetEmbedding(ctx, id); metaErr == nil && meta.Stale(s.embedder.Name(), s.embedder.Model()) {
				err = fmt.Errorf("%w (stored by %s/%s, current provider %s/%s; re-embed required)",
					err, meta.Provider, meta.Model, s.embedder.Name(), s.embedder.Model())
			}
		}
		return err
	}
	return nil
}

// Retrieve runs context-classified, relevance-ranked retrieval. The query
// is classified into a context category whose boost profile biases insight
// types, then ranked by cosine similarity, confidence, reinforcement
// history, and the boost.
//
// A provider failure degrades to the non-semantic fallback ranking rather
// than failing retrieval. Returned insights are stamped with
// last_retrieved_at, best-effort.
func (s *Service) Retrieve(ctx context.Context, query string, opts RetrievalOptions) ([]ScoredInsight, error) {
	if opts.Boosts == (BoostProfile{}) {
		category := ClassifyContext(query)
		opts.Boosts = category.Boosts()
		s.logger.Debug("query classified",
			zap.String("category", string(category)))
	}

	var queryVec []float32
	if s.embedder != nil && query != "" {
		vectors, err := s.embedder.Embed(ctx, []string{query})
		if err != nil {
			s.logger.Warn("query embedding failed, using fallback ranking",
				zap.Error(err))
		} else {
			queryVec = vectors[0]
		}
	}

	corpus, err := s.store.ScanInsights(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	stored, err := s.store.AllEmbeddings(ctx)
	if err != nil {
		s.logger.Warn("loading embeddings failed, using fallback ranking",
			zap.Error(err))
		stored = nil
	}
	if len(queryVec) > 0 {
		if err := s.checkVectorDimensions(ctx, queryVec, stored); err != nil {
			return nil, err
		}
	}

	results, err := RankInsights(queryVec, corpus, stored, opts)
	if err != nil {
		return nil, fmt.Errorf("ranking insights: %w", err)
	}

	if len(results) > 0 {
		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.Insight.ID
		}
		if err := s.store.TouchRetrieved(ctx, ids, time.Now()); err != nil {
			s.logger.Warn("stamping last_retrieved_at failed", zap.Error(err))
		}
	}
	return results, nil
}

// History returns the full chronological ledger for one insight.
func (s *Service) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	if _, err := s.store.GetInsight(ctx, id); err != nil {
		return nil, err
	}
	return s.store.InsightHistory(ctx, id)
}

// Changelog returns recent ledger entries across all insights, newest
// first.
func (s *Service) Changelog(ctx context.Context, opts ChangelogOptions) ([]HistoryEntry, error) {
	return s.store.Changelog(ctx, opts)
}

// Export serializes every insight as JSON, for the file export contract.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	corpus, err := s.store.ScanInsights(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	return json.MarshalIndent(corpus, "", "  ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
