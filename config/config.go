// Package config loads and validates ContestConfig values: the
// fully-validated configuration the tabulation engine consumes,
// per spec §6. Loading, defaulting and schema validation are ambient
// concerns; the tabulation semantics those fields drive live in
// package tabulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/overvote"
	"github.com/openrcv/tabulator/tiebreak"
)

// Contest is the fully-validated configuration for a single contest.
// It implements every accessor spec §6 lists on ContestConfig.
type Contest struct {
	NumWinners    int                  `json:"num_winners" yaml:"num_winners"`
	Candidates    []candidate.Candidate `json:"candidate_names" yaml:"candidate_names"`
	ExcludedNames []candidate.Candidate `json:"excluded_candidates" yaml:"excluded_candidates"`

	OvervoteRule  overvote.Rule `json:"overvote_rule" yaml:"overvote_rule"`
	TiebreakMode  tiebreak.Mode `json:"tiebreak_mode" yaml:"tiebreak_mode"`

	MaxSkippedRanksAllowed Maybe[int] `json:"max_skipped_ranks_allowed" yaml:"max_skipped_ranks_allowed"` // unset == unlimited
	MaxRankingsAllowed     int        `json:"max_rankings_allowed" yaml:"max_rankings_allowed"`
	ExhaustOnDuplicate     bool       `json:"exhaust_on_duplicate" yaml:"exhaust_on_duplicate"`

	BatchEliminationEnabled       bool `json:"batch_elimination_enabled" yaml:"batch_elimination_enabled"`
	ContinueUntilTwo              bool `json:"continue_until_two" yaml:"continue_until_two"`
	FirstRoundDeterminesThreshold bool `json:"first_round_determines_threshold" yaml:"first_round_determines_threshold"`
	HareQuotaEnabled              bool `json:"hare_quota_enabled" yaml:"hare_quota_enabled"`

	MultiSeatBottomsUp                bool            `json:"multi_seat_bottoms_up" yaml:"multi_seat_bottoms_up"`
	MultiSeatBottomsUpThresholdPct    decimal.Decimal `json:"multi_seat_bottoms_up_threshold_percent" yaml:"multi_seat_bottoms_up_threshold_percent"`
	MultiSeatBottomsUpUntilN          bool            `json:"multi_seat_bottoms_up_until_n" yaml:"multi_seat_bottoms_up_until_n"`
	MultiSeatOneWinnerPerRound        bool            `json:"multi_seat_one_winner_per_round" yaml:"multi_seat_one_winner_per_round"`
	MultiSeatSequential               bool            `json:"multi_seat_sequential" yaml:"multi_seat_sequential"`

	TabulateByPrecinctEnabled bool `json:"tabulate_by_precinct_enabled" yaml:"tabulate_by_precinct_enabled"`
	GenerateCDFJSONEnabled    bool `json:"generate_cdf_json_enabled" yaml:"generate_cdf_json_enabled"`

	MinimumVoteThreshold decimal.Decimal `json:"minimum_vote_threshold" yaml:"minimum_vote_threshold"`
	DecimalPlaces        int             `json:"decimal_places" yaml:"decimal_places"`
	NonIntegerThresholdsEnabled bool      `json:"non_integer_thresholds_enabled" yaml:"non_integer_thresholds_enabled"`

	RandomSeed            uint64                `json:"random_seed" yaml:"random_seed"`
	CandidatePermutation  []candidate.Candidate `json:"candidate_permutation" yaml:"candidate_permutation"`

	StopTabulationEarlyAfterRound Maybe[int] `json:"stop_tabulation_early_after_round" yaml:"stop_tabulation_early_after_round"`

	displayNames map[candidate.Candidate]string `json:"-" yaml:"-"`
}

// NumCandidates returns the number of declared (non-excluded)
// candidates.
func (c *Contest) NumCandidates() int {
	n := 0
	for _, cand := range c.Candidates {
		if !c.CandidateIsExcluded(cand) {
			n++
		}
	}
	return n
}

// CandidateNames returns every declared candidate, excluded or not.
func (c *Contest) CandidateNames() []candidate.Candidate { return c.Candidates }

// CandidateIsExcluded reports whether name was declared never-tabulated.
func (c *Contest) CandidateIsExcluded(name candidate.Candidate) bool {
	for _, ex := range c.ExcludedNames {
		if ex == name {
			return true
		}
	}
	return false
}

// GetNameForCandidate returns the display name for a candidate id,
// falling back to the id itself when no display name was configured.
func (c *Contest) GetNameForCandidate(cand candidate.Candidate) string {
	if name, ok := c.displayNames[cand]; ok {
		return name
	}
	return string(cand)
}

// NeedsRandomSeed reports whether the configured tiebreak mode
// consumes the PRNG.
func (c *Contest) NeedsRandomSeed() bool {
	switch c.TiebreakMode {
	case tiebreak.ModeRandom, tiebreak.ModePreviousRoundCountsThenRandom, tiebreak.ModeGeneratePermutation:
		return true
	default:
		return false
	}
}

// StopAfterRound returns the configured early-stop round, or a large
// sentinel when unset (tabulate to natural completion).
func (c *Contest) StopAfterRound() int {
	return c.StopTabulationEarlyAfterRound.Or(1 << 30)
}

// MaxSkippedRanks returns the configured skip limit, or -1 for
// "unlimited" (spec's max_skipped_ranks_allowed = ∞).
func (c *Contest) MaxSkippedRanks() int {
	return c.MaxSkippedRanksAllowed.Or(-1)
}

// defaults returns the baseline every loaded config is merged over,
// mirroring the teacher's defaultEnv-over-environment pattern in
// internal/vote/run.go.
func defaults() Contest {
	return Contest{
		NumWinners:             1,
		OvervoteRule:           overvote.RuleExhaustIfMultipleContinuing,
		TiebreakMode:           tiebreak.ModeRandom,
		MaxRankingsAllowed:     1 << 30,
		DecimalPlaces:          4,
		MinimumVoteThreshold:   decimal.Zero,
	}
}

// Load reads a ContestConfig from path (.yaml/.yml or .json, chosen by
// extension), defaults missing fields via dario.cat/mergo, validates
// the raw input document's shape against Schema, then runs semantic
// Validate on the defaulted result.
func Load(path string) (*Contest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes raw config bytes in the given format ("json", ".json",
// "yaml", ".yml", ".yaml" all accepted) and applies the same
// default/validate pipeline as Load.
func Parse(raw []byte, format string) (*Contest, error) {
	var loaded Contest
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.Unmarshal(raw, &loaded); err != nil {
			return nil, fmt.Errorf("parsing json config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.UnmarshalWithOptions(raw, &loaded, yaml.UseJSONUnmarshaler()); err != nil {
			return nil, fmt.Errorf("parsing yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	base := defaults()
	if err := mergo.Merge(&loaded, base); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}

	if err := validateSchema(raw, format); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	return &loaded, nil
}

// Validate performs the semantic checks the config layer owns before
// handing the result to the Tabulator (the structural checks in Schema
// already ran in validateSchema; enum fields are not range-checked).
func (c *Contest) Validate() error {
	if c.NumWinners < 1 {
		return fmt.Errorf("num_winners must be >= 1, got %d", c.NumWinners)
	}
	if c.NumCandidates() == 0 {
		return fmt.Errorf("contest declares no tabulated candidates")
	}
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 20 {
		return fmt.Errorf("decimal_places must be within [0, 20], got %d", c.DecimalPlaces)
	}
	if c.MaxRankingsAllowed < 1 {
		return fmt.Errorf("max_rankings_allowed must be positive")
	}
	if c.MultiSeatSequential {
		// Sequential winner-takes-all reruns a full single-winner IRV
		// sub-election per seat, renumbering rounds per seat rather
		// than for the whole contest. Unlike §4.10's carry-forward,
		// the spec never gives this variant a dedicated algorithm
		// section - seat-boundary behavior, round renumbering, and
		// per-seat threshold recomputation are all unspecified.
		// Refuse rather than guess and silently tabulate it wrong.
		return fmt.Errorf("multi_seat_sequential is not implemented; see DESIGN.md")
	}
	return nil
}

// validateSchema validates raw against Schema when format is json; a
// yaml document is converted to its JSON form first since
// gojsonschema only understands JSON documents.
func validateSchema(raw []byte, format string) error {
	var doc any
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return err
		}
	default:
		return nil
	}

	schemaLoader := gojsonschema.NewStringLoader(Schema)
	docLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("running schema validator: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid contest config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Schema is the JSON Schema structural contract every loaded config
// must satisfy, independent of and prior to the semantic Validate.
const Schema = `{
  "type": "object",
  "properties": {
    "num_winners": {"type": "integer", "minimum": 1},
    "candidate_names": {"type": "array", "items": {"type": "string"}},
    "decimal_places": {"type": "integer", "minimum": 0, "maximum": 20},
    "max_rankings_allowed": {"type": "integer", "minimum": 1}
  }
}`
