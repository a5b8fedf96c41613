package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"i4.energy/across/picorepl/repl"
)

// Controller is the session surface the server drives
type Controller interface {
	HandleLine(ctx context.Context, line string) error
	Send(ctx context.Context, data []byte) error
	SoftReset(ctx context.Context) error
	HardReset(ctx context.Context) error
	SoftReboot(ctx context.Context) error
	State() repl.State
	Port() string
	Connected() bool
}

// Server handles incoming HTTP requests for interacting with the
// connected board
type Server struct {
	Logger     *slog.Logger
	Session    Controller
	Transcript *Transcript
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /line", s.handleLine)
	mux.HandleFunc("POST /control/{command}", s.handleControl)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /output", s.handleOutput)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleLine forwards one line of input, including the console commands
func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	type LineRequest struct {
		Line string `json:"line"`
	}

	var req LineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.Session.Connected() {
		s.sendError(w, "board not connected", http.StatusServiceUnavailable)
		return
	}

	if err := s.Session.HandleLine(r.Context(), req.Line); err != nil {
		s.Logger.Error("Failed to forward line", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Debug("Line forwarded", "line_length", len(req.Line), "state", s.Session.State().String())
	w.WriteHeader(http.StatusAccepted)
}

// handleControl sends one of the fixed control commands
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	command := r.PathValue("command")

	var run func(context.Context) error
	switch command {
	case "soft-reset":
		run = s.Session.SoftReset
	case "hard-reset":
		run = s.Session.HardReset
	case "soft-reboot":
		run = s.Session.SoftReboot
	case "interrupt":
		run = func(ctx context.Context) error { return s.Session.Send(ctx, []byte(repl.CtrlC)) }
	case "raw-repl":
		run = func(ctx context.Context) error { return s.Session.Send(ctx, []byte(repl.CtrlA)) }
	case "normal-repl":
		run = func(ctx context.Context) error { return s.Session.Send(ctx, []byte(repl.CtrlB)) }
	default:
		s.sendError(w, "unknown command: "+command, http.StatusNotFound)
		return
	}

	if !s.Session.Connected() {
		s.sendError(w, "board not connected", http.StatusServiceUnavailable)
		return
	}

	if err := run(r.Context()); err != nil {
		s.Logger.Error("Failed to send control command", "error", err, "command", command)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Control command sent", "command", command)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	type StateResponse struct {
		State     string `json:"state"`
		Port      string `json:"port"`
		Connected bool   `json:"connected"`
	}
	s.sendJSON(w, StateResponse{
		State:     s.Session.State().String(),
		Port:      s.Session.Port(),
		Connected: s.Session.Connected(),
	})
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	type OutputResponse struct {
		Lines []string `json:"lines"`
	}
	lines := s.Transcript.Lines()
	if lines == nil {
		lines = []string{}
	}
	s.sendJSON(w, OutputResponse{Lines: lines})
}
