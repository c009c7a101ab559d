package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appActivation "github.com/livestage/livestage/internal/application/activation"
	appLeaderboard "github.com/livestage/livestage/internal/application/leaderboard"
	appRoom "github.com/livestage/livestage/internal/application/room"
	appScoring "github.com/livestage/livestage/internal/application/scoring"
	appSession "github.com/livestage/livestage/internal/application/session"
	appVote "github.com/livestage/livestage/internal/application/vote"
	"github.com/livestage/livestage/internal/domain/access"
	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/notification"
	"github.com/livestage/livestage/internal/domain/participant"
	"github.com/livestage/livestage/internal/domain/room"
	"github.com/livestage/livestage/internal/domain/session"
	"github.com/livestage/livestage/internal/domain/vote"
)

// Services bundles the application services the API calls.
type Services struct {
	Rooms       *appRoom.Service
	Activations *appActivation.Service
	Sessions    *appSession.Coordinator
	Votes       *appVote.Service
	Scoring     *appScoring.Service
	Leaderboard *appLeaderboard.Service
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	roomSvc        *appRoom.Service
	activationSvc  *appActivation.Service
	sessionSvc     *appSession.Coordinator
	voteSvc        *appVote.Service
	scoringSvc     *appScoring.Service
	leaderboardSvc *appLeaderboard.Service
	hub            notification.Hub
	checker        access.Checker
	logger         zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func NewServer(svcs Services, hub notification.Hub, checker access.Checker, logger zerolog.Logger) *Server {
	if checker == nil {
		checker = access.AllowAll{}
	}
	return &Server{
		roomSvc:        svcs.Rooms,
		activationSvc:  svcs.Activations,
		sessionSvc:     svcs.Sessions,
		voteSvc:        svcs.Votes,
		scoringSvc:     svcs.Scoring,
		leaderboardSvc: svcs.Leaderboard,
		hub:            hub,
		checker:        checker,
		logger:         logger.With().Str("component", "http").Logger(),
		done:           make(chan struct{}),
	}
}

// CloseStreams ends every open SSE and WebSocket stream. Register it with
// http.Server.RegisterOnShutdown: Shutdown otherwise waits on open SSE
// responses until its deadline and never sees hijacked WebSocket conns.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		// long lived streams are registered outside the timeout group
		r.Get("/rooms/{roomId}/stream", s.sseEndpoint)
		r.Get("/rooms/{roomId}/ws", s.wsEndpoint)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Route("/rooms/{roomId}", func(r chi.Router) {
				r.Get("/live", s.getLiveState)
				r.Get("/leaderboard", s.getLeaderboard)
				r.Post("/participants", s.joinRoom)

				r.Group(func(r chi.Router) {
					r.Use(s.requireRoomOperator)
					r.Get("/templates", s.listTemplates)
					r.Post("/templates", s.createTemplate)
					r.Post("/launch", s.launchActivation)
					r.Post("/reset", s.resetRoom)
					r.Post("/session/clear", s.clearSession)
				})
			})

			r.Route("/activations/{activationId}", func(r chi.Router) {
				r.Get("/", s.getActivation)
				r.Get("/tally", s.getTally)
				r.Post("/votes", s.castVote)
				r.Post("/answers", s.submitAnswer)

				r.Group(func(r chi.Router) {
					r.Use(s.requireActivationOperator)
					r.Post("/arm", s.armActivation)
					r.Post("/poll", s.transitionPoll)
					r.Post("/deactivate", s.deactivateActivation)
					r.Delete("/", s.deleteActivation)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireOperator)
				r.Get("/vote-failures", s.listVoteFailures)
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps domain errors onto HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, activation.ErrInvalidContent):
		respondError(w, http.StatusBadRequest, "INVALID_CONTENT", err.Error())
	case errors.Is(err, activation.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, vote.ErrVotingClosed):
		respondError(w, http.StatusConflict, "VOTING_NOT_OPEN", err.Error())
	case errors.Is(err, vote.ErrUnknownOption):
		respondError(w, http.StatusBadRequest, "INVALID_OPTION", err.Error())
	case errors.Is(err, participant.ErrInvalidDisplayName),
		errors.Is(err, participant.ErrWrongRoom),
		errors.Is(err, activation.ErrNotPoll),
		errors.Is(err, activation.ErrNotTemplate),
		errors.Is(err, activation.ErrRoomMismatch),
		errors.Is(err, session.ErrTemplateNotArmable),
		errors.Is(err, appScoring.ErrNotScorable):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, room.ErrInactive),
		errors.Is(err, appScoring.ErrNotLive):
		respondError(w, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, room.ErrNotFound),
		errors.Is(err, activation.ErrNotFound),
		errors.Is(err, participant.ErrNotFound),
		errors.Is(err, session.ErrActivationNotFound),
		errors.Is(err, vote.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, access.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func contextFromRequest(r *http.Request) context.Context {
	return r.Context()
}

func parseLimit(r *http.Request, defaultLimit, maxLimit int) int {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
