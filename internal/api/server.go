// Package api serves the scanner, program and waitlist endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pumpscope/internal/domain"
	"pumpscope/internal/observability"
	"pumpscope/internal/waitlist"
)

// DefaultStreamInterval is how often the snapshot stream pushes a fresh snapshot.
const DefaultStreamInterval = 30 * time.Second

// Snapshotter builds launch snapshots. Implemented by scanner.Aggregator.
type Snapshotter interface {
	Aggregate(ctx context.Context) (*domain.LaunchSnapshot, error)
}

// ProgramReader inspects the configured program. Implemented by scanner.ProgramInspector.
type ProgramReader interface {
	Inspect(ctx context.Context) (*domain.ProgramReport, error)
	Network() string
}

// WaitlistService accepts sign-ups. Implemented by waitlist.Service.
type WaitlistService interface {
	Submit(ctx context.Context, raw string) (*waitlist.Result, error)
	Count(ctx context.Context) (int, error)
}

// Options for creating the router.
type Options struct {
	Scanner  Snapshotter
	Programs ProgramReader
	Waitlist WaitlistService

	StreamInterval time.Duration // default 30s
	// CheckOrigin overrides the websocket same-origin check when set.
	CheckOrigin func(origin string) bool

	Logger *zerolog.Logger
}

// Server holds the handler dependencies.
type Server struct {
	scanner        Snapshotter
	programs       ProgramReader
	waitlist       WaitlistService
	streamInterval time.Duration
	upgrader       websocket.Upgrader
	logger         zerolog.Logger
}

// NewRouter wires all routes onto a chi router.
func NewRouter(opts Options) (chi.Router, error) {
	s, err := newServer(opts)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.instrument)
	r.Use(s.recoverer)

	r.Get("/health", s.health)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/tokens", s.tokens)
		r.Get("/pumpfun", s.pumpfun)
		r.Get("/pumpfun/stream", s.stream)
		r.Post("/waitlist", s.submitWaitlist)
		r.Get("/waitlist", s.countWaitlist)
	})

	return r, nil
}

func newServer(opts Options) (*Server, error) {
	if opts.Scanner == nil {
		return nil, errors.New("scanner is required")
	}
	if opts.Programs == nil {
		return nil, errors.New("program reader is required")
	}
	if opts.Waitlist == nil {
		return nil, errors.New("waitlist service is required")
	}

	s := &Server{
		scanner:        opts.Scanner,
		programs:       opts.Programs,
		waitlist:       opts.Waitlist,
		streamInterval: opts.StreamInterval,
		logger:         zerolog.Nop(),
	}
	if s.streamInterval <= 0 {
		s.streamInterval = DefaultStreamInterval
	}
	if opts.Logger != nil {
		s.logger = opts.Logger.With().Str("component", "api").Logger()
	}
	if opts.CheckOrigin != nil {
		check := opts.CheckOrigin
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			return check(r.Header.Get("Origin"))
		}
	}
	return s, nil
}
