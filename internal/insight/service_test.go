package insight

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	insights   map[string]*Insight
	embeddings map[string][]float32
	metadata   map[string]EmbeddingMetadata
	history    []HistoryEntry
	nextRow    int64
}

func newMemStore() *memStore {
	return &memStore{
		insights:   make(map[string]*Insight),
		embeddings: make(map[string][]float32),
		metadata:   make(map[string]EmbeddingMetadata),
	}
}

func (s *memStore) appendHistory(entries []HistoryEntry) {
	for _, e := range entries {
		s.nextRow++
		e.ID = s.nextRow
		s.history = append(s.history, e)
	}
}

func (s *memStore) PutInsight(_ context.Context, ins *Insight, entries []HistoryEntry) error {
	if err := ins.Validate(); err != nil {
		return err
	}
	cp := *ins
	s.insights[ins.ID] = &cp
	s.appendHistory(entries)
	return nil
}

func (s *memStore) GetInsight(_ context.Context, id string) (*Insight, error) {
	ins, ok := s.insights[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ins
	return &cp, nil
}

func (s *memStore) UpdateInsight(_ context.Context, ins *Insight, entries []HistoryEntry) error {
	if _, ok := s.insights[ins.ID]; !ok {
		return ErrNotFound
	}
	cp := *ins
	s.insights[ins.ID] = &cp
	s.appendHistory(entries)
	return nil
}

func (s *memStore) DeleteInsight(_ context.Context, id string) error {
	if _, ok := s.insights[id]; !ok {
		return ErrNotFound
	}
	delete(s.insights, id)
	delete(s.embeddings, id)
	delete(s.metadata, id)
	kept := s.history[:0]
	for _, e := range s.history {
		if e.InsightID != id {
			kept = append(kept, e)
		}
	}
	s.history = kept
	return nil
}

func (s *memStore) MergeInsights(ctx context.Context, target *Insight, sourceID string, entries []HistoryEntry) error {
	if err := s.UpdateInsight(ctx, target, entries); err != nil {
		return err
	}
	return s.DeleteInsight(ctx, sourceID)
}

func (s *memStore) ScanInsights(_ context.Context, f Filter) ([]*Insight, error) {
	var out []*Insight
	for _, ins := range s.insights {
		if ins.Confidence < f.MinConfidence {
			continue
		}
		if len(f.Types) > 0 {
			found := false
			for _, typ := range f.Types {
				if ins.Type == typ {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if f.Tag != "" {
			found := false
			for _, tag := range ins.Tags {
				if tag == f.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		cp := *ins
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memStore) PutEmbedding(_ context.Context, id string, vec []float32, meta EmbeddingMetadata) error {
	s.embeddings[id] = append([]float32(nil), vec...)
	s.metadata[id] = meta
	return nil
}

func (s *memStore) GetEmbedding(_ context.Context, id string) ([]float32, *EmbeddingMetadata, error) {
	vec, ok := s.embeddings[id]
	if !ok {
		return nil, nil, ErrNoEmbedding
	}
	meta := s.metadata[id]
	return vec, &meta, nil
}

func (s *memStore) AllEmbeddings(_ context.Context) (map[string][]float32, error) {
	out := make(map[string][]float32, len(s.embeddings))
	for id, vec := range s.embeddings {
		out[id] = vec
	}
	return out, nil
}

func (s *memStore) TouchRetrieved(_ context.Context, ids []string, at time.Time) error {
	for _, id := range ids {
		if ins, ok := s.insights[id]; ok {
			stamp := at
			ins.LastRetrievedAt = &stamp
		}
	}
	return nil
}

func (s *memStore) InsightHistory(_ context.Context, id string) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for _, e := range s.history {
		if e.InsightID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) Changelog(_ context.Context, opts ChangelogOptions) ([]HistoryEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	out := append([]HistoryEntry(nil), s.history...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubEmbedder returns canned vectors keyed by input text, or a fixed error.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := e.vectors[text]; ok {
			out[i] = vec
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int { return 3 }
func (e *stubEmbedder) Name() string   { return "stub" }
func (e *stubEmbedder) Model() string  { return "stub-model" }

func newTestService(store Store, embedder Embedder) *Service {
	return NewService(store, embedder, nil)
}

func TestService_Contribute(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, &stubEmbedder{vectors: map[string][]float32{}})

	result, err := svc.Contribute(context.Background(), TypeRelational,
		"Boss values directness and brevity in communication", 0.7,
		ContributeOptions{Tags: []string{"boss", "work", "boss"}, Source: "session-12"})
	require.NoError(t, err)

	stored, err := ms.GetInsight(context.Background(), result.Insight.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"boss", "work"}, stored.Tags)
	assert.Equal(t, "session-12", stored.Source)
	assert.Empty(t, result.Conflicts)

	// One creation ledger entry describing the whole record.
	history, err := ms.InsightHistory(context.Background(), result.Insight.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ChangeCreate, history[0].Kind)
	assert.Equal(t, FieldWildcard, history[0].Field)

	// Best-effort embedding was stored.
	_, _, err = ms.GetEmbedding(context.Background(), result.Insight.ID)
	assert.NoError(t, err)
}

func TestService_Contribute_ReportsConflictsButWrites(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	_, err := svc.Contribute(context.Background(), TypeRelational,
		"Boss values directness and brevity in communication", 0.8, ContributeOptions{})
	require.NoError(t, err)

	result, err := svc.Contribute(context.Background(), TypeRelational,
		"Boss prefers detailed verbose explanations", 0.6, ContributeOptions{})
	require.NoError(t, err)

	// The conflict is advisory: reported, yet both insights are stored.
	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0].TensionReason, "↔")
	assert.Len(t, ms.insights, 2)
}

func TestService_Contribute_SkipConflictCheck(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	_, err := svc.Contribute(context.Background(), TypeBehavioral, "keep replies formal", 0.8, ContributeOptions{})
	require.NoError(t, err)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "keep replies casual", 0.8,
		ContributeOptions{SkipConflictCheck: true})
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
}

func TestService_Contribute_InvalidInput(t *testing.T) {
	svc := newTestService(newMemStore(), nil)

	_, err := svc.Contribute(context.Background(), TypeBehavioral, "", 0.5, ContributeOptions{})
	assert.ErrorIs(t, err, ErrEmptyClaim)

	_, err = svc.Contribute(context.Background(), Type("opinion"), "claim", 0.5, ContributeOptions{})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Contribute(context.Background(), TypeBehavioral, "claim", 1.5, ContributeOptions{})
	assert.ErrorIs(t, err, ErrInvalidConfidence)
}

func TestService_Contribute_EmbeddingFailureIsNotFatal(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, &stubEmbedder{err: errors.New("provider down")})

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "stored without vector", 0.5, ContributeOptions{})
	require.NoError(t, err)

	_, _, err = ms.GetEmbedding(context.Background(), result.Insight.ID)
	assert.ErrorIs(t, err, ErrNoEmbedding)
}

func TestService_Update_RecordsFieldDiffs(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "original claim", 0.5, ContributeOptions{})
	require.NoError(t, err)
	id := result.Insight.ID

	newClaim := "revised claim"
	newConfidence := 0.9
	updated, err := svc.Update(context.Background(), id, UpdateOptions{
		Claim:      &newClaim,
		Confidence: &newConfidence,
	})
	require.NoError(t, err)
	assert.Equal(t, newClaim, updated.Claim)
	assert.Equal(t, newConfidence, updated.Confidence)

	history, err := ms.InsightHistory(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 3) // create + claim + confidence

	fields := map[string]bool{}
	for _, e := range history[1:] {
		assert.Equal(t, ChangeUpdate, e.Kind)
		fields[e.Field] = true
	}
	assert.True(t, fields["claim"])
	assert.True(t, fields["confidence"])
}

func TestService_Update_NoChangeRecordsNothing(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "same claim", 0.5, ContributeOptions{})
	require.NoError(t, err)

	same := "same claim"
	_, err = svc.Update(context.Background(), result.Insight.ID, UpdateOptions{Claim: &same})
	require.NoError(t, err)

	history, err := ms.InsightHistory(context.Background(), result.Insight.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1) // only the creation entry
}

func TestService_Update_Validation(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "a claim", 0.5, ContributeOptions{})
	require.NoError(t, err)

	empty := "  "
	_, err = svc.Update(context.Background(), result.Insight.ID, UpdateOptions{Claim: &empty})
	assert.ErrorIs(t, err, ErrEmptyClaim)

	tooHigh := 1.5
	_, err = svc.Update(context.Background(), result.Insight.ID, UpdateOptions{Confidence: &tooHigh})
	assert.ErrorIs(t, err, ErrInvalidConfidence)

	_, err = svc.Update(context.Background(), "missing-id", UpdateOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Update_ClaimChangeReembeds(t *testing.T) {
	ms := newMemStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	svc := newTestService(ms, embedder)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "original claim", 0.5, ContributeOptions{})
	require.NoError(t, err)
	callsAfterCreate := embedder.calls

	newClaim := "revised claim"
	_, err = svc.Update(context.Background(), result.Insight.ID, UpdateOptions{Claim: &newClaim})
	require.NoError(t, err)
	assert.Equal(t, callsAfterCreate+1, embedder.calls)

	// A non-claim update does not re-embed.
	reasoning := "new reasoning"
	_, err = svc.Update(context.Background(), result.Insight.ID, UpdateOptions{Reasoning: &reasoning})
	require.NoError(t, err)
	assert.Equal(t, callsAfterCreate+1, embedder.calls)
}

func TestService_Reinforce(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "a claim", 0.5, ContributeOptions{})
	require.NoError(t, err)

	ins, err := svc.Reinforce(context.Background(), result.Insight.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.525, ins.Confidence, 1e-9)
	assert.Equal(t, 1, ins.ReinforcementCount)

	history, err := ms.InsightHistory(context.Background(), result.Insight.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ChangeReinforce, history[1].Kind)
	assert.Equal(t, "confidence", history[1].Field)
	assert.Equal(t, "reinforcement 1", history[1].Source)
}

func TestService_Reinforce_NotFound(t *testing.T) {
	svc := newTestService(newMemStore(), nil)

	_, err := svc.Reinforce(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Merge(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	src, err := svc.Contribute(context.Background(), TypeRelational, "Boss likes short updates", 0.9,
		ContributeOptions{Tags: []string{"boss", "updates"}, Reasoning: "said so twice"})
	require.NoError(t, err)
	tgt, err := svc.Contribute(context.Background(), TypeRelational, "Boss prefers concise communication", 0.7,
		ContributeOptions{Tags: []string{"boss", "communication"}, SkipConflictCheck: true})
	require.NoError(t, err)

	_, err = svc.Reinforce(context.Background(), src.Insight.ID)
	require.NoError(t, err)

	merged, err := svc.Merge(context.Background(), src.Insight.ID, tgt.Insight.ID, "")
	require.NoError(t, err)

	// Max confidence (the source was reinforced once past 0.9), union of
	// tags, summed reinforcement, concatenated reasoning, target claim
	// preserved.
	assert.InDelta(t, 0.905, merged.Confidence, 1e-9)
	assert.Equal(t, []string{"boss", "communication", "updates"}, merged.Tags)
	assert.Equal(t, 1, merged.ReinforcementCount)
	assert.Equal(t, "said so twice", merged.Reasoning)
	assert.Equal(t, "Boss prefers concise communication", merged.Claim)

	// Source record is gone.
	_, err = svc.Get(context.Background(), src.Insight.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Merge entries annotate the absorbed id.
	history, err := ms.InsightHistory(context.Background(), tgt.Insight.ID)
	require.NoError(t, err)
	var mergeEntries int
	for _, e := range history {
		if e.Kind == ChangeMerge {
			mergeEntries++
			assert.Equal(t, "merged from "+src.Insight.ID, e.Source)
		}
	}
	assert.Greater(t, mergeEntries, 0)
}

func TestService_Merge_ClaimOverride(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	src, err := svc.Contribute(context.Background(), TypeSkill, "skilled at go", 0.6, ContributeOptions{})
	require.NoError(t, err)
	tgt, err := svc.Contribute(context.Background(), TypeSkill, "skilled at golang", 0.6,
		ContributeOptions{SkipConflictCheck: true})
	require.NoError(t, err)

	merged, err := svc.Merge(context.Background(), src.Insight.ID, tgt.Insight.ID, "skilled at Go and its tooling")
	require.NoError(t, err)
	assert.Equal(t, "skilled at Go and its tooling", merged.Claim)
}

func TestService_Merge_SelfReference(t *testing.T) {
	svc := newTestService(newMemStore(), nil)

	_, err := svc.Merge(context.Background(), "same-id", "same-id", "")
	assert.ErrorIs(t, err, ErrSelfReference)
}

func TestService_Merge_MissingRecords(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	existing, err := svc.Contribute(context.Background(), TypeSkill, "a claim", 0.5, ContributeOptions{})
	require.NoError(t, err)

	_, err = svc.Merge(context.Background(), "missing-id", existing.Insight.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Merge(context.Background(), existing.Insight.ID, "missing-id", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Archive(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "to be archived", 0.5, ContributeOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(context.Background(), result.Insight.ID))
	_, err = svc.Get(context.Background(), result.Insight.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Archiving an unknown id is a documented no-op.
	assert.NoError(t, svc.Archive(context.Background(), "missing-id"))
}

func TestService_Retrieve_RanksAndStamps(t *testing.T) {
	ms := newMemStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"database query": {1, 0, 0},
	}}
	svc := newTestService(ms, embedder)

	near, err := svc.Contribute(context.Background(), TypeSkill, "writes efficient sql", 0.8, ContributeOptions{})
	require.NoError(t, err)
	require.NoError(t, ms.PutEmbedding(context.Background(), near.Insight.ID, []float32{1, 0, 0}, EmbeddingMetadata{}))

	far, err := svc.Contribute(context.Background(), TypeSkill, "plays the piano", 0.8,
		ContributeOptions{SkipConflictCheck: true})
	require.NoError(t, err)
	require.NoError(t, ms.PutEmbedding(context.Background(), far.Insight.ID, []float32{0, 1, 0}, EmbeddingMetadata{}))

	results, err := svc.Retrieve(context.Background(), "database query", RetrievalOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, near.Insight.ID, results[0].Insight.ID)

	stamped, err := svc.Get(context.Background(), near.Insight.ID)
	require.NoError(t, err)
	assert.NotNil(t, stamped.LastRetrievedAt)
}

func TestService_Retrieve_DegradesWithoutEmbedder(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	_, err := svc.Contribute(context.Background(), TypeBehavioral, "low confidence", 0.3, ContributeOptions{})
	require.NoError(t, err)
	strong, err := svc.Contribute(context.Background(), TypeBehavioral, "high confidence", 0.9,
		ContributeOptions{SkipConflictCheck: true})
	require.NoError(t, err)

	results, err := svc.Retrieve(context.Background(), "anything", RetrievalOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, strong.Insight.ID, results[0].Insight.ID)
}

func TestService_Retrieve_ProviderFailureFallsBack(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, &stubEmbedder{err: errors.New("provider down")})

	_, err := svc.Contribute(context.Background(), TypeBehavioral, "still retrievable", 0.8, ContributeOptions{})
	require.NoError(t, err)

	results, err := svc.Retrieve(context.Background(), "query", RetrievalOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestService_SearchByText(t *testing.T) {
	ms := newMemStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"sql help": {1, 0, 0},
	}}
	svc := newTestService(ms, embedder)

	ins, err := svc.Contribute(context.Background(), TypeSkill, "writes efficient sql", 0.4, ContributeOptions{})
	require.NoError(t, err)
	require.NoError(t, ms.PutEmbedding(context.Background(), ins.Insight.ID, []float32{1, 0, 0}, EmbeddingMetadata{}))

	results, err := svc.SearchByText(context.Background(), "sql help", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Pure similarity: score equals the cosine term, confidence ignored.
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.Equal(t, results[0].Similarity, results[0].Score)
}

func TestService_SearchByText_OrdersBySimilarityAlone(t *testing.T) {
	// A near-duplicate claim at low confidence must outrank a weaker match
	// at full confidence: similarity search ignores the rank-score terms.
	ms := newMemStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"focus areas": {1, 0, 0},
	}}
	svc := newTestService(ms, embedder)

	tentative, err := svc.Contribute(context.Background(), TypeBehavioral, "barely believed near duplicate", 0.1,
		ContributeOptions{SkipConflictCheck: true})
	require.NoError(t, err)
	require.NoError(t, ms.PutEmbedding(context.Background(), tentative.Insight.ID, []float32{1, 0.1, 0}, EmbeddingMetadata{}))

	certain, err := svc.Contribute(context.Background(), TypeBehavioral, "fully believed loose match", 1.0,
		ContributeOptions{SkipConflictCheck: true})
	require.NoError(t, err)
	require.NoError(t, ms.PutEmbedding(context.Background(), certain.Insight.ID, []float32{1, 1, 0}, EmbeddingMetadata{}))

	results, err := svc.SearchByText(context.Background(), "focus areas", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, tentative.Insight.ID, results[0].Insight.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestService_SearchByText_RequiresEmbedder(t *testing.T) {
	svc := newTestService(newMemStore(), nil)

	_, err := svc.SearchByText(context.Background(), "query", 5)
	assert.Error(t, err)
}

func TestService_Retrieve_StaleDimensionVectorIsFatal(t *testing.T) {
	// A vector left behind by an earlier provider with a different dimension
	// must fail retrieval loudly, naming the old provider/model pair, rather
	// than silently ranking the record as orthogonal.
	ms := newMemStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	svc := newTestService(ms, embedder)

	result, err := svc.Contribute(context.Background(), TypeBehavioral, "embedded before the migration", 0.8, ContributeOptions{})
	require.NoError(t, err)
	require.NoError(t, ms.PutEmbedding(context.Background(), result.Insight.ID, []float32{1, 2},
		EmbeddingMetadata{Provider: "legacy", Model: "old-model", Dimensions: 2, CreatedAt: time.Now()}))

	_, err = svc.Retrieve(context.Background(), "any query", RetrievalOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), result.Insight.ID)
	assert.Contains(t, err.Error(), "legacy")
	assert.Contains(t, err.Error(), "old-model")

	_, err = svc.SearchByText(context.Background(), "any query", 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestService_History_UnknownID(t *testing.T) {
	svc := newTestService(newMemStore(), nil)

	_, err := svc.History(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Changelog(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	first, err := svc.Contribute(context.Background(), TypeBehavioral, "first", 0.5, ContributeOptions{})
	require.NoError(t, err)
	_, err = svc.Reinforce(context.Background(), first.Insight.ID)
	require.NoError(t, err)

	entries, err := svc.Changelog(context.Background(), ChangelogOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, ChangeReinforce, entries[0].Kind)
	assert.Equal(t, ChangeCreate, entries[1].Kind)
}

func TestService_Export(t *testing.T) {
	ms := newMemStore()
	svc := newTestService(ms, nil)

	_, err := svc.Contribute(context.Background(), TypeBehavioral, "exported claim", 0.5, ContributeOptions{})
	require.NoError(t, err)

	data, err := svc.Export(context.Background())
	require.NoError(t, err)

	var decoded []Insight
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "exported claim", decoded[0].Claim)
}
