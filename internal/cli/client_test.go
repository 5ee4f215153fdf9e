package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mgsim/internal/api"
	"mgsim/internal/config"
	"mgsim/internal/game"
	"mgsim/internal/rules"
	"mgsim/internal/stats"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	repo, err := stats.NewFileRepository(filepath.Join(t.TempDir(), "stats.json"))
	if err != nil {
		t.Fatalf("repo: %v", err)
	}
	cfg := config.APIConfig{MaxBatchGames: 4, BatchWorkers: 2}
	srv := httptest.NewServer(api.New(cfg, nil, game.NewService(rules.Default(), nil), repo).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClientRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	if err := c.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
	sheet, err := c.Rules(ctx)
	if err != nil || sheet.Companies != 6 {
		t.Fatalf("rules: %+v %v", sheet, err)
	}
	sim, err := c.RunSimulation(ctx, api.SimulationRequest{Seed: 21, DisableRisk: true})
	if err != nil || sim.Result.Seed != 21 {
		t.Fatalf("simulation: %v", err)
	}
	sum, err := c.RunBatch(ctx, api.BatchRequest{Games: 2, Seed: 4})
	if err != nil || sum.Games != 2 {
		t.Fatalf("batch: %v", err)
	}
	latest, err := c.LatestStats(ctx)
	if err != nil || latest.ID != sum.ID {
		t.Fatalf("latest: %v", err)
	}
	list, err := c.ListStats(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %d %v", len(list), err)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := newClient(t)
	_, err := c.LatestStats(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message == "" {
		t.Fatalf("expected a 404 APIError, got %v", err)
	}
}
