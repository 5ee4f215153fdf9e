package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mgsim/internal/config"
	"mgsim/internal/game"
	"mgsim/internal/stats"
	"mgsim/internal/strategy"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	cfg    config.APIConfig
	log    *slog.Logger
	game   *game.Service
	runner *stats.Runner
	repo   stats.Repository
	mux    *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service, repo stats.Repository) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		game:   gameSvc,
		runner: stats.NewRunner(gameSvc, logger),
		repo:   repo,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rules", s.handleRules)
		r.Post("/simulations", s.handleSimulation)
		r.Post("/batches", s.handleBatch)
		r.Get("/stats", s.handleStatsList)
		r.Get("/stats/latest", s.handleStatsLatest)
	})
}

// SimulationRequest is the body of POST /v1/simulations.
type SimulationRequest struct {
	Seed        int64       `json:"seed,omitempty"`
	Names       []string    `json:"names,omitempty"`
	HumanName   string      `json:"human_name,omitempty"`
	Strategies  []string    `json:"strategies,omitempty"`
	ForcedDice  map[int]int `json:"forced_dice,omitempty"`
	DisableRisk bool        `json:"disable_risk,omitempty"`
	IncludeLogs bool        `json:"include_logs,omitempty"`
}

type SimulationResponse struct {
	Strategies []string              `json:"strategies"`
	Result     game.SimulationResult `json:"result"`
}

// BatchRequest is the body of POST /v1/batches.
type BatchRequest struct {
	Games       int   `json:"games"`
	Seed        int64 `json:"seed,omitempty"`
	Workers     int   `json:"workers,omitempty"`
	DisableRisk bool  `json:"disable_risk,omitempty"`
	UseTuning   bool  `json:"use_tuning,omitempty"`
	Save        *bool `json:"save,omitempty"`
}

func (s *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Config().Sheet())
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	var in SimulationRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	seats, err := strategy.Seats(in.Strategies, s.game.Config().Companies)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	opts := game.Options{
		AllAI:       in.HumanName == "",
		HumanName:   in.HumanName,
		ForcedDice:  in.ForcedDice,
		Seed:        in.Seed,
		DisableRisk: in.DisableRisk,
		Names:       in.Names,
	}
	res, err := s.game.RunSimulation(r.Context(), opts, strategy.NewProvider(s.game.Config(), seats, strategy.Tuning{}))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !in.IncludeLogs {
		res.Logs = nil
	}
	out := SimulationResponse{Result: res}
	for _, st := range seats {
		out.Strategies = append(out.Strategies, st.Name())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var in BatchRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Games <= 0 || in.Games > s.cfg.MaxBatchGames {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("games must be between 1 and %d", s.cfg.MaxBatchGames))
		return
	}
	workers := in.Workers
	if workers <= 0 || workers > s.cfg.BatchWorkers {
		workers = s.cfg.BatchWorkers
	}
	opts := stats.BatchOptions{Games: in.Games, Seed: in.Seed, Workers: workers, DisableRisk: in.DisableRisk}
	if in.UseTuning {
		latest, err := s.repo.Latest(r.Context())
		switch {
		case err == nil:
			opts.Tuning = latest.Tuning()
		case !errors.Is(err, stats.ErrNoSummary):
			writeDomainError(w, err)
			return
		}
	}

	sum, err := s.runner.Run(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if in.Save == nil || *in.Save {
		if err := s.repo.Save(r.Context(), sum); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleStatsList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 200)
	}
	list, err := s.repo.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": list})
}

func (s *Server) handleStatsLatest(w http.ResponseWriter, r *http.Request) {
	sum, err := s.repo.Latest(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeDomainError(w http.ResponseWriter, err error) {
	var inv *game.InvariantError
	switch {
	case errors.Is(err, game.ErrInvalidOption), errors.Is(err, strategy.ErrUnknownStrategy), errors.Is(err, stats.ErrInvalidBatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stats.ErrNoSummary):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &inv):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
