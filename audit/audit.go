// Package audit implements tabulator.Logger with structured logging,
// the round-loop's one-way observability channel (spec §5: the logger
// never blocks or mutates tabulation state). The teacher only pulls
// rs/zerolog in transitively (via its dockertest-based integration
// tests); here it does the job directly.
package audit

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/tally"
)

// Logger writes one structured event per round-loop milestone.
type Logger struct {
	log      zerolog.Logger
	contest  string
}

// New builds a Logger writing to w, tagged with contestID.
func New(w io.Writer, contestID string) *Logger {
	return &Logger{
		log:     zerolog.New(w).With().Timestamp().Str("contest", contestID).Logger(),
		contest: contestID,
	}
}

// Round logs one completed, locked round tally.
func (l *Logger) Round(round int, rt *tally.RoundTally) {
	ev := l.log.Info().Int("round", round).Str("threshold", rt.Threshold.String())
	for _, c := range rt.Candidates() {
		ev = ev.Str("tally."+string(c), rt.Candidate(c).String())
	}
	ev.Msg("round completed")
}

// Eliminated logs a candidate's elimination.
func (l *Logger) Eliminated(round int, c candidate.Candidate, reason string) {
	l.log.Info().Int("round", round).Str("candidate", string(c)).Str("reason", reason).Msg("candidate eliminated")
}

// Elected logs a candidate's election.
func (l *Logger) Elected(round int, c candidate.Candidate) {
	l.log.Info().Int("round", round).Str("candidate", string(c)).Msg("candidate elected")
}

// Fatal logs the error that halted tabulation.
func (l *Logger) Fatal(err error) {
	l.log.Error().Err(err).Msg("tabulation halted")
}
