package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	nextDocID int64
	runs      map[string]store.Run
	docs      map[int64]store.Doc
	tokens    map[string]int64
	tokenName map[int64]string
	weights   map[int64]map[int64]float64 // doc → token → weight
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextDocID: 1,
		runs:      make(map[string]store.Run),
		docs:      make(map[int64]store.Doc),
		tokens:    make(map[string]int64),
		tokenName: make(map[int64]string),
		weights:   make(map[int64]map[int64]float64),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// BeginRun implements store.Store.
func (s *Store) BeginRun(ctx context.Context, id, format string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; ok {
		return fmt.Errorf("%w: run %s already exists", internalerr.ErrInvalidInput, id)
	}
	s.runs[id] = store.Run{ID: id, Format: format, CreatedAt: time.Now().UTC()}
	return nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, nil
}

// AddDocument implements store.Store.
func (s *Store) AddDocument(ctx context.Context, d store.Doc) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextDocID
	s.nextDocID++
	d.Terms = nil
	d.Metadata = copyMeta(d.Metadata)
	s.docs[d.ID] = d
	return d.ID, nil
}

// GetDoc implements store.Store. Terms are ordered by token id.
func (s *Store) GetDoc(ctx context.Context, id int64) (store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return store.Doc{}, fmt.Errorf("doc %d: %w", id, internalerr.ErrNotFound)
	}
	d.Metadata = copyMeta(d.Metadata)

	ids := make([]int64, 0, len(s.weights[id]))
	for tid := range s.weights[id] {
		ids = append(ids, tid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, tid := range ids {
		d.Terms = append(d.Terms, store.Term{Token: s.tokenName[tid], Weight: s.weights[id][tid]})
	}
	return d, nil
}

// DocCount implements store.Store.
func (s *Store) DocCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// InternToken implements store.Store. Ids start at 1.
func (s *Store) InternToken(ctx context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.tokens[token]; ok {
		return id, nil
	}
	id := int64(len(s.tokens) + 1)
	s.tokens[token] = id
	s.tokenName[id] = token
	return id, nil
}

// AddWeights implements store.Store.
func (s *Store) AddWeights(ctx context.Context, docID int64, weights []store.Weight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[docID]; !ok {
		return fmt.Errorf("doc %d: %w", docID, internalerr.ErrNotFound)
	}
	m := s.weights[docID]
	if m == nil {
		m = make(map[int64]float64, len(weights))
		s.weights[docID] = m
	}
	for _, w := range weights {
		if _, ok := s.tokenName[w.TokenID]; !ok {
			return fmt.Errorf("token %d: %w", w.TokenID, internalerr.ErrNotFound)
		}
		m[w.TokenID] = w.Weight
	}
	return nil
}

// TokenCount implements store.Store.
func (s *Store) TokenCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.tokens)), nil
}

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
