package memory_test

import (
	"context"
	"testing"

	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/cvrsource/memory"
	"github.com/openrcv/tabulator/rankings"
)

func TestAddAndLoadAccumulates(t *testing.T) {
	s := memory.New()
	b := rankings.NewBuilder()
	b.Add(1, "A")
	s.Add("contest-1", ballot.New("1", b.Build()))
	s.Add("contest-1", ballot.New("2", b.Build()))

	got, err := s.Load(context.Background(), "contest-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Load() returned %d cvrs, want 2", len(got))
	}
}

func TestLoadUnknownContestReportsDoesNotExist(t *testing.T) {
	s := memory.New()
	_, err := s.Load(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error for an unloaded contest")
	}
	if _, ok := err.(interface{ DoesNotExist() }); !ok {
		t.Errorf("error %v does not implement DoesNotExist()", err)
	}
}

func TestClearRemovesContest(t *testing.T) {
	s := memory.New()
	b := rankings.NewBuilder()
	b.Add(1, "A")
	s.Add("contest-1", ballot.New("1", b.Build()))
	s.Clear("contest-1")

	if _, err := s.Load(context.Background(), "contest-1"); err == nil {
		t.Fatal("expected Load to fail after Clear")
	}
}

func TestLoadReturnsACopyNotTheBackingSlice(t *testing.T) {
	s := memory.New()
	b := rankings.NewBuilder()
	b.Add(1, "A")
	s.Add("contest-1", ballot.New("1", b.Build()))

	got, err := s.Load(context.Background(), "contest-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	got[0] = nil

	again, err := s.Load(context.Background(), "contest-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if again[0] == nil {
		t.Error("mutating a returned slice affected the source's internal state")
	}
}
