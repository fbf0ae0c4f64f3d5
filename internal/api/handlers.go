package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"pumpscope/internal/observability"
	"pumpscope/internal/waitlist"
)

// Client-facing error messages.
const (
	msgPumpfunFailed = "Failed to fetch Pump.fun data"
	msgInvalidEmail  = "Invalid email"
	msgServerError   = "Server error"
	msgAlreadyListed = "Already on waitlist"
)

const maxBodyBytes = 1 << 20

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}

func (s *Server) tokens(w http.ResponseWriter, r *http.Request) {
	report, err := s.programs.Inspect(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("inspect program")
		renderError(w, r, http.StatusInternalServerError,
			fmt.Sprintf("Failed to fetch from Solana %s", s.programs.Network()), err)
		return
	}

	render.JSON(w, r, NewTokensResponse(report))
}

func (s *Server) pumpfun(w http.ResponseWriter, r *http.Request) {
	snap, err := s.scanner.Aggregate(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("aggregate listings")
		renderError(w, r, http.StatusInternalServerError, msgPumpfunFailed, err)
		return
	}

	for _, sl := range snap.Recent {
		observability.RecordListingScored(sl.Risk.Level.String())
	}

	render.JSON(w, r, NewPumpfunResponse(snap))
}

func (s *Server) submitWaitlist(w http.ResponseWriter, r *http.Request) {
	var req WaitlistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("decode waitlist request")
		renderError(w, r, http.StatusInternalServerError, msgServerError, nil)
		return
	}

	raw, ok := req.Email.(string)
	if !ok {
		observability.RecordWaitlistSubmission(observability.OutcomeInvalid)
		renderError(w, r, http.StatusBadRequest, msgInvalidEmail, nil)
		return
	}

	res, err := s.waitlist.Submit(r.Context(), raw)
	if err != nil {
		if errors.Is(err, waitlist.ErrInvalidEmail) {
			renderError(w, r, http.StatusBadRequest, msgInvalidEmail, nil)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("submit waitlist")
		renderError(w, r, http.StatusInternalServerError, msgServerError, nil)
		return
	}

	resp := WaitlistSubmitResponse{Success: true, Count: res.Count}
	if !res.Added {
		resp.Message = msgAlreadyListed
	}
	render.JSON(w, r, resp)
}

func (s *Server) countWaitlist(w http.ResponseWriter, r *http.Request) {
	count, err := s.waitlist.Count(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("count waitlist")
		renderError(w, r, http.StatusInternalServerError, msgServerError, nil)
		return
	}

	render.JSON(w, r, WaitlistCountResponse{Count: count})
}

// renderError writes {error, details}. details is omitted when err is nil.
func renderError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
