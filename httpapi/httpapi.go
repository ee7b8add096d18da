// Package httpapi is the thin HTTP surface over the tabulation engine,
// grounded on vote/http/http.go's Server/registerHandlers shape and
// vote/http/error.go's typed-error-to-status-code mapping.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openrcv/tabulator/config"
	"github.com/openrcv/tabulator/cvrsource"
	"github.com/openrcv/tabulator/errs"
	"github.com/openrcv/tabulator/resultio"
	"github.com/openrcv/tabulator/tabulator"
)

// Server serves the tabulation HTTP API on Addr.
type Server struct {
	Addr string
	src  cvrsource.Source
	log  func(format string, a ...any)
	lst  net.Listener
}

// New builds a Server backed by src for CVR lookup.
func New(addr string, src cvrsource.Source, log func(format string, a ...any)) *Server {
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Server{Addr: addr, src: src, log: log}
}

// StartListener opens the TCP listener ahead of Run, useful for tests
// that bind an ephemeral port.
func (s *Server) StartListener() error {
	lst, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Addr, err)
	}
	s.lst = lst
	s.Addr = lst.Addr().String()
	return nil
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /contests/{id}/tabulate", s.handleTabulate)

	srv := &http.Server{
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	wait := make(chan error, 1)
	go func() {
		<-ctx.Done()
		wait <- srv.Shutdown(context.Background())
	}()

	if s.lst == nil {
		if err := s.StartListener(); err != nil {
			return fmt.Errorf("start listening: %w", err)
		}
	}

	s.log("listening on %s", s.Addr)
	if err := srv.Serve(s.lst); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return <-wait
}

// tabulateRequest is the request body for POST .../tabulate: the
// contest configuration to apply to the contest's loaded CVRs.
type tabulateRequest struct {
	Config json.RawMessage `json:"config"`
}

func (s *Server) handleTabulate(w http.ResponseWriter, r *http.Request) {
	contestID := r.PathValue("id")

	var req tabulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("decoding request body: %w", err))
		return
	}

	cfg, err := config.Parse(req.Config, "json")
	if err != nil {
		writeError(w, err)
		return
	}

	cvrs, err := s.src.Load(r.Context(), contestID)
	if err != nil {
		writeError(w, err)
		return
	}

	t := tabulator.New(cfg, cvrs, nil, nil, nil)
	if err := t.Run(); err != nil {
		writeError(w, err)
		return
	}

	summary := resultio.BuildSummary(cfg, t)
	w.Header().Set("Content-Type", "application/json")
	if err := resultio.WriteJSON(w, summary); err != nil {
		s.log("writing tabulate response for %s: %v", contestID, err)
	}
}

// writeError maps a handler error to a status code the way
// vote/http/error.go does: a *errs.Fatal gets 422 (the request was
// well-formed but the contest could not be tabulated), anything
// implementing DoesNotExist() gets 404, everything else is 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var fatal *errs.Fatal
	var notFound interface{ DoesNotExist() }
	switch {
	case errors.As(err, &fatal):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{err.Error()})
}
