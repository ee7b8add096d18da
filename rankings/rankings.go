// Package rankings implements the immutable per-ballot ranking
// structure: a sparse, ascending-rank sequence of candidate sets.
package rankings

import (
	"sort"

	"github.com/openrcv/tabulator/candidate"
)

// AtRank is the (order-irrelevant, deduplicated-by-construction) set
// of candidates marked at a single rank on one ballot.
type AtRank struct {
	members map[candidate.Candidate]struct{}
}

// NewAtRank builds an AtRank from a list of candidates, silently
// deduplicating.
func NewAtRank(candidates ...candidate.Candidate) AtRank {
	m := make(map[candidate.Candidate]struct{}, len(candidates))
	for _, c := range candidates {
		m[c] = struct{}{}
	}
	return AtRank{members: m}
}

// Len returns the number of distinct candidates at this rank.
func (a AtRank) Len() int { return len(a.members) }

// Has reports whether c is marked at this rank.
func (a AtRank) Has(c candidate.Candidate) bool {
	_, ok := a.members[c]
	return ok
}

// Sorted returns the candidates at this rank in a deterministic,
// lexicographic order. Per spec §5, any iteration over a candidate set
// that can affect outcomes must be deterministic.
func (a AtRank) Sorted() []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(a.members))
	for c := range a.members {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rankings is the immutable, ascending-rank, sparse sequence of
// (rank, AtRank) pairs for one ballot. Gaps between ranks are allowed.
type Rankings struct {
	byRank  map[int]AtRank
	maxRank int
}

// Builder accumulates ranks before producing an immutable Rankings.
type Builder struct {
	byRank  map[int]AtRank
	maxRank int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byRank: make(map[int]AtRank)}
}

// Add records the candidates marked at rank (a positive integer).
// Calling Add twice for the same rank overwrites the prior value; CVR
// ingestion is expected to group marks by rank before calling this.
func (b *Builder) Add(rank int, candidates ...candidate.Candidate) *Builder {
	if rank < 1 {
		panic("rankings: rank must be a positive integer")
	}
	b.byRank[rank] = NewAtRank(candidates...)
	if rank > b.maxRank {
		b.maxRank = rank
	}
	return b
}

// Build freezes the Builder into an immutable Rankings.
func (b *Builder) Build() Rankings {
	frozen := make(map[int]AtRank, len(b.byRank))
	for r, a := range b.byRank {
		frozen[r] = a
	}
	return Rankings{byRank: frozen, maxRank: b.maxRank}
}

// MaxRank returns the highest rank with any candidate marked, or 0 for
// an empty (zero-ranking) ballot.
func (r Rankings) MaxRank() int { return r.maxRank }

// NumRankings returns the number of ranks that have at least one
// candidate marked.
func (r Rankings) NumRankings() int { return len(r.byRank) }

// HasRank reports whether any candidate is marked at rank.
func (r Rankings) HasRank(rank int) bool {
	_, ok := r.byRank[rank]
	return ok
}

// AtRank returns the candidates marked at rank, or an empty AtRank if
// none (including gaps and ranks past MaxRank).
func (r Rankings) AtRank(rank int) AtRank {
	return r.byRank[rank]
}

// Ranks returns every rank with at least one mark, in ascending order.
func (r Rankings) Ranks() []int {
	out := make([]int, 0, len(r.byRank))
	for rank := range r.byRank {
		out = append(out, rank)
	}
	sort.Ints(out)
	return out
}
