package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"

	"github.com/openrcv/tabulator/ballot"
	"github.com/openrcv/tabulator/cvrsource/postgres"
	"github.com/openrcv/tabulator/rankings"
)

func startPostgres(t *testing.T) (string, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %s", err)
	}

	runOpts := dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=password",
			"POSTGRES_DB=database",
		},
	}

	resource, err := pool.RunWithOptions(&runOpts)
	if err != nil {
		t.Fatalf("could not start postgres container: %s", err)
	}

	return resource.GetPort("5432/tcp"), func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatalf("could not purge postgres container: %s", err)
		}
	}
}

func TestInsertAndLoadRoundTripsRankings(t *testing.T) {
	if testing.Short() {
		t.Skip("skip postgres test")
	}

	ctx := context.Background()
	port, closeDB := startPostgres(t)
	defer closeDB()

	addr := fmt.Sprintf(`user=postgres password='password' host=localhost port=%s dbname=database`, port)
	src, err := postgres.New(ctx, addr)
	if err != nil {
		t.Fatalf("postgres.New() error: %v", err)
	}
	defer src.Close()

	if err := src.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	b := rankings.NewBuilder()
	b.Add(1, "A").Add(2, "B", "C")
	cvr := ballot.New("cvr-1", b.Build())
	cvr.Precinct = "precinct-9"

	if err := src.Insert(ctx, "contest-1", cvr); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	loaded, err := src.Load(ctx, "contest-1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Load() returned %d cvrs, want 1", len(loaded))
	}
	got := loaded[0]
	if got.ID != "cvr-1" || got.Precinct != "precinct-9" {
		t.Errorf("loaded cvr = %+v, want ID=cvr-1 Precinct=precinct-9", got)
	}
	if got.Rankings.MaxRank() != 2 {
		t.Errorf("MaxRank() = %d, want 2", got.Rankings.MaxRank())
	}
	if !got.Rankings.AtRank(2).Has("B") || !got.Rankings.AtRank(2).Has("C") {
		t.Errorf("rank 2 = %v, want {B, C}", got.Rankings.AtRank(2).Sorted())
	}
}

func TestLoadUnknownContestReportsDoesNotExist(t *testing.T) {
	if testing.Short() {
		t.Skip("skip postgres test")
	}

	ctx := context.Background()
	port, closeDB := startPostgres(t)
	defer closeDB()

	addr := fmt.Sprintf(`user=postgres password='password' host=localhost port=%s dbname=database`, port)
	src, err := postgres.New(ctx, addr)
	if err != nil {
		t.Fatalf("postgres.New() error: %v", err)
	}
	defer src.Close()

	if err := src.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	_, err = src.Load(ctx, "nope")
	if err == nil {
		t.Fatal("expected an error for an unknown contest")
	}
	if _, ok := err.(interface{ DoesNotExist() }); !ok {
		t.Errorf("error %v does not implement DoesNotExist()", err)
	}
}
