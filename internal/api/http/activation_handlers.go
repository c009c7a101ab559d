package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	appSession "github.com/livestage/livestage/internal/application/session"
	"github.com/livestage/livestage/internal/domain/activation"
)

type armRequest struct {
	PreservePollState bool `json:"preserve_poll_state"`
}

type pollTransitionRequest struct {
	To string `json:"to"`
}

func parseUUIDString(v string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(v))
}

func (s *Server) getActivation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	a, err := s.activationSvc.Get(contextFromRequest(r), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) armActivation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	var req armRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	a, err := s.activationSvc.Get(contextFromRequest(r), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	st, err := s.sessionSvc.Arm(contextFromRequest(r), a.RoomID, id, appSession.ArmOptions{
		PreservePollState: req.PreservePollState,
		Actor:             actorFromRequest(r),
	})
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) transitionPoll(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	var req pollTransitionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	to := activation.PollState(strings.ToUpper(strings.TrimSpace(req.To)))
	a, err := s.activationSvc.TransitionPoll(contextFromRequest(r), id, to, actorFromRequest(r))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) deactivateActivation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	a, err := s.activationSvc.Deactivate(contextFromRequest(r), id, actorFromRequest(r))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) deleteActivation(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	if err := s.activationSvc.Delete(contextFromRequest(r), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
