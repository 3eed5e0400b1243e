package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.IndexRunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.IndexRunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs []domain.IndexRun
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// SaveRun records a run, replacing any run with the same id.
func (s *RunStore) SaveRun(_ context.Context, run domain.IndexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = run
			return nil
		}
	}
	s.runs = append(s.runs, run)
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.IndexRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.IndexRun, len(s.runs))
	copy(out, s.runs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
