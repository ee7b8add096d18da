// Package cvrsource defines the pluggable cast-vote-record ingestion
// boundary. CVR parsing itself is an external collaborator (the wire
// format varies by jurisdiction and export tool); this package only
// specifies the interface the engine consumes, plus two concrete
// backends (memory, postgres) for development and production use.
package cvrsource

import (
	"context"

	"github.com/openrcv/tabulator/ballot"
)

// Source loads every cast vote record declared for one contest. The
// order returned is not significant to tabulation (package tabulator
// sorts wherever order matters) but implementations should return a
// stable order across calls to keep audit logs reproducible.
type Source interface {
	Load(ctx context.Context, contestID string) ([]*ballot.CastVoteRecord, error)
}
