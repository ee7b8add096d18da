// Package memory implements the cvrsource.Source interface.
//
// All data are held in memory, grouped by contest. Intended for tests
// and small one-off tabulations loaded from a already-parsed CVR file.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/openrcv/tabulator/ballot"
)

// Source is a cvrsource.Source backed by an in-memory slice per contest.
type Source struct {
	mu   sync.Mutex
	cvrs map[string][]*ballot.CastVoteRecord
}

// New initializes an empty memory.Source.
func New() *Source {
	return &Source{cvrs: make(map[string][]*ballot.CastVoteRecord)}
}

// Add appends cvrs to contestID's set. Calling Add again for the same
// contestID accumulates rather than replaces.
func (s *Source) Add(contestID string, cvrs ...*ballot.CastVoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cvrs[contestID] = append(s.cvrs[contestID], cvrs...)
}

// Load returns every CVR added for contestID.
func (s *Source) Load(ctx context.Context, contestID string) ([]*ballot.CastVoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cvrs, ok := s.cvrs[contestID]
	if !ok {
		return nil, doesNotExistError{fmt.Errorf("contest %q has no loaded cast vote records", contestID)}
	}

	out := make([]*ballot.CastVoteRecord, len(cvrs))
	copy(out, cvrs)
	return out, nil
}

// Clear removes every CVR loaded for contestID.
func (s *Source) Clear(contestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cvrs, contestID)
}

type doesNotExistError struct {
	error
}

func (doesNotExistError) DoesNotExist() {}
