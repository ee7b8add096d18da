// Command rcvtab tabulates a ranked-choice contest from a config file
// and a CVR file, or serves the HTTP tabulation API. Wiring follows
// internal/vote/run.go's build-then-run shape, adapted from
// environment-variable configuration to CLI flags via alecthomas/kong.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/openrcv/tabulator/audit"
	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/config"
	"github.com/openrcv/tabulator/cvrsource/memory"
	"github.com/openrcv/tabulator/httpapi"
	"github.com/openrcv/tabulator/rankings"
	"github.com/openrcv/tabulator/resultio"
	"github.com/openrcv/tabulator/tabulator"
)

type cli struct {
	Tabulate tabulateCmd `cmd:"" help:"Run one contest to completion and print its results."`
	Serve    serveCmd    `cmd:"" help:"Serve the tabulation HTTP API."`
}

type tabulateCmd struct {
	Config string `arg:"" help:"Path to the contest config (.yaml or .json)."`
	CVRs   string `arg:"" help:"Path to a JSON file containing the contest's cast vote records."`
	Format string `default:"json" enum:"json,csv" help:"Output format."`
}

type serveCmd struct {
	Addr string `default:":8080" help:"Address to listen on."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c, kong.Name("rcvtab"), kong.Description("Ranked-choice voting tabulation engine."))
	if err := kctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "rcvtab:", err)
		os.Exit(1)
	}
}

func (t *tabulateCmd) Run() error {
	cfg, err := config.Load(t.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cvrs, err := loadCVRFile(t.CVRs)
	if err != nil {
		return fmt.Errorf("loading cast vote records: %w", err)
	}

	logger := audit.New(os.Stderr, t.Config)
	tab := tabulator.New(cfg, cvrs, nil, nil, logger)
	if err := tab.Run(); err != nil {
		return fmt.Errorf("tabulating: %w", err)
	}

	summary := resultio.BuildSummary(cfg, tab)
	switch t.Format {
	case "csv":
		return resultio.WriteCSV(os.Stdout, summary)
	default:
		return resultio.WriteJSON(os.Stdout, summary)
	}
}

func (s *serveCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := httpapi.New(s.Addr, memory.New(), func(format string, a ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", a...)
	})
	return srv.Run(ctx)
}

// cvrFileRecord is the on-disk shape of one CVR in the tabulate
// command's input file: a flat list of rank -> candidates entries.
type cvrFileRecord struct {
	ID       string `json:"id"`
	Precinct string `json:"precinct,omitempty"`
	Rankings []struct {
		Rank       int      `json:"rank"`
		Candidates []string `json:"candidates"`
	} `json:"rankings"`
}

func loadCVRFile(path string) ([]*ballot.CastVoteRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []cvrFileRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing cvr file: %w", err)
	}

	out := make([]*ballot.CastVoteRecord, 0, len(records))
	for _, rec := range records {
		b := rankings.NewBuilder()
		for _, mark := range rec.Rankings {
			cands := make([]candidate.Candidate, len(mark.Candidates))
			for i, c := range mark.Candidates {
				cands[i] = candidate.Candidate(c)
			}
			b.Add(mark.Rank, cands...)
		}
		cvr := ballot.New(rec.ID, b.Build())
		cvr.Precinct = rec.Precinct
		out = append(out, cvr)
	}
	return out, nil
}
