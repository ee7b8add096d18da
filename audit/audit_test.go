package audit_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/audit"
	"github.com/openrcv/tabulator/tally"
)

func TestRoundLogsContestAndTally(t *testing.T) {
	var buf bytes.Buffer
	l := audit.New(&buf, "contest-1")

	rt := tally.New(1)
	rt.AddCandidate("A", decimal.NewFromInt(3))
	rt.Threshold = decimal.NewFromInt(2)
	rt.Lock()

	l.Round(1, rt)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshaling log line: %v", err)
	}
	if line["contest"] != "contest-1" {
		t.Errorf("contest = %v, want contest-1", line["contest"])
	}
	if line["tally.A"] != "3" {
		t.Errorf("tally.A = %v, want \"3\"", line["tally.A"])
	}
	if line["message"] != "round completed" {
		t.Errorf("message = %v, want \"round completed\"", line["message"])
	}
}

func TestFatalLogsTheError(t *testing.T) {
	var buf bytes.Buffer
	l := audit.New(&buf, "contest-1")

	l.Fatal(errors.New("boom"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("unmarshaling log line: %v", err)
	}
	if line["error"] != "boom" {
		t.Errorf("error = %v, want boom", line["error"])
	}
	if line["level"] != "error" {
		t.Errorf("level = %v, want error", line["level"])
	}
}

func TestElectedAndEliminatedIncludeCandidate(t *testing.T) {
	var buf bytes.Buffer
	l := audit.New(&buf, "contest-1")

	l.Elected(2, "A")
	l.Eliminated(1, "C", "lowest tally")

	dec := json.NewDecoder(&buf)
	var elected, eliminated map[string]any
	if err := dec.Decode(&elected); err != nil {
		t.Fatalf("decoding elected line: %v", err)
	}
	if err := dec.Decode(&eliminated); err != nil {
		t.Fatalf("decoding eliminated line: %v", err)
	}

	if elected["candidate"] != "A" || elected["round"] != float64(2) {
		t.Errorf("elected line = %v", elected)
	}
	if eliminated["candidate"] != "C" || eliminated["reason"] != "lowest tally" {
		t.Errorf("eliminated line = %v", eliminated)
	}
}
