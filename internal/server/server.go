// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatpane/internal/client"
	"github.com/jeranaias/chatpane/internal/model"
)

// maxBodyBytes bounds the request body.
const maxBodyBytes = 4 << 20

// Config configures the development endpoint.
type Config struct {
	Addr string

	// ChunkDelay paces the reply chunks. Zero sends them back to back.
	ChunkDelay time.Duration

	// Token, when set, is required as a bearer token on /api/chat.
	Token string

	Logger *slog.Logger
}

// Server is the development chat endpoint.
type Server struct {
	cfg    Config
	logger *slog.Logger
	router chi.Router
}

// New creates a server with its routes registered.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		cfg:    cfg,
		logger: logger.With("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(SecurityHeadersMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Token, s.logger))
		r.Post("/api/chat", s.handleChat)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("SERVER_LISTENING", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req client.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		respondWithError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	for i, m := range req.Messages {
		if !m.Role.Valid() {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("messages[%d]: invalid role %q", i, m.Role))
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	limit := rate.Inf
	if s.cfg.ChunkDelay > 0 {
		limit = rate.Every(s.cfg.ChunkDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	ctx := r.Context()
	for _, chunk := range Chunks(Reply(req.Messages)) {
		if err := limiter.Wait(ctx); err != nil {
			s.logger.Debug("STREAM_ABORTED", "error", err)
			return
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			s.logger.Debug("STREAM_ABORTED", "error", err)
			return
		}
		flusher.Flush()
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// =============================================================================
// REPLY
// =============================================================================

// Reply builds the echo reply for a conversation.
func Reply(messages []model.Message) string {
	last := messages[len(messages)-1]
	turns := 0
	for _, m := range messages {
		if m.Role == model.RoleUser {
			turns++
		}
	}
	text := strings.TrimSpace(last.Content)
	if text == "" {
		return fmt.Sprintf("(turn %d) You sent an empty message.", turns)
	}
	return fmt.Sprintf("(turn %d) You said: %s", turns, text)
}

// Chunks splits s into word-sized pieces that concatenate back to s.
func Chunks(s string) []string {
	return strings.SplitAfter(s, " ")
}
