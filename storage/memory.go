package storage

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"tubemind/core"
)

// MemoryVectorStore keeps records in-process and ranks with a normalized
// term-frequency cosine. It backs tests and API-less deployments.
type MemoryVectorStore struct {
	mu         sync.RWMutex
	namespaces map[string]*memNamespace
}

type memNamespace struct {
	order   []string // insertion order of record IDs
	records map[string]memRecord
}

type memRecord struct {
	rec   core.Record
	embed map[string]float64
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{namespaces: map[string]*memNamespace{}}
}

func (s *MemoryVectorStore) Upsert(_ context.Context, namespace string, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = &memNamespace{records: map[string]memRecord{}}
		s.namespaces[namespace] = ns
	}
	for _, rec := range records {
		if _, exists := ns.records[rec.ID]; !exists {
			ns.order = append(ns.order, rec.ID)
		}
		ns.records[rec.ID] = memRecord{rec: rec, embed: embedText(strings.ToLower(rec.Text))}
	}
	return nil
}

func (s *MemoryVectorStore) FetchByID(_ context.Context, namespace, id string) (*core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil, nil
	}
	mr, ok := ns.records[id]
	if !ok {
		return nil, nil
	}
	rec := mr.rec
	return &rec, nil
}

func (s *MemoryVectorStore) Search(_ context.Context, namespace, query string, topK int) ([]core.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil, nil
	}
	qv := embedText(strings.ToLower(query))

	type scored struct {
		id    string
		score float64
	}
	scores := make([]scored, 0, len(ns.order))
	for _, id := range ns.order {
		// The summary card is served by FetchByID, not by similarity search.
		if id == core.SummaryCardID {
			continue
		}
		scores = append(scores, scored{id, cosine(qv, ns.records[id].embed)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if topK <= 0 {
		topK = 5
	}
	if topK > len(scores) {
		topK = len(scores)
	}
	hits := make([]core.Hit, 0, topK)
	for _, sc := range scores[:topK] {
		if sc.score <= 0 {
			continue
		}
		rec := ns.records[sc.id].rec
		hits = append(hits, core.Hit{
			Score:     sc.score,
			ID:        rec.ID,
			Text:      rec.Text,
			StartTime: rec.StartTime,
			EndTime:   rec.EndTime,
		})
	}
	return hits, nil
}

func (s *MemoryVectorStore) DeleteNamespace(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func embedText(text string) map[string]float64 {
	toks := tokenize(text)
	m := map[string]float64{}
	for _, t := range toks {
		m[t] += 1
	}
	// L2 normalize
	var sum float64
	for _, v := range m {
		sum += v * v
	}
	if sum == 0 {
		return m
	}
	norm := math.Sqrt(sum)
	for k, v := range m {
		m[k] = v / norm
	}
	return m
}

func cosine(a, b map[string]float64) float64 {
	var dot float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	return dot
}
