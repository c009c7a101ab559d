package httpapi

import (
	"net/http"
	"strconv"

	"github.com/livestage/livestage/internal/domain/vote"
)

type castVoteRequest struct {
	ParticipantID string  `json:"participant_id"`
	OptionID      *string `json:"option_id"`
	OptionText    string  `json:"option_text"`
}

type submitAnswerRequest struct {
	ParticipantID string `json:"participant_id"`
	Answer        string `json:"answer"`
	LatencyMs     int64  `json:"latency_ms"`
}

func (s *Server) castVote(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	var req castVoteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	participantID, err := parseUUIDString(req.ParticipantID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participant_id")
		return
	}
	res, err := s.voteSvc.CastVote(contextFromRequest(r), id, participantID, req.OptionID, req.OptionText)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	status := http.StatusCreated
	switch res.Status {
	case vote.StatusDuplicate:
		status = http.StatusOK
	case vote.StatusQueued:
		status = http.StatusAccepted
	}
	respondJSON(w, status, res)
}

func (s *Server) getTally(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	t, err := s.voteSvc.Tally(contextFromRequest(r), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "activationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
		return
	}
	var req submitAnswerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	participantID, err := parseUUIDString(req.ParticipantID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participant_id")
		return
	}
	res, err := s.scoringSvc.SubmitAnswer(contextFromRequest(r), id, participantID, req.Answer, req.LatencyMs)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if !res.Recorded {
		status = http.StatusOK
	}
	respondJSON(w, status, res)
}

func (s *Server) listVoteFailures(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100, 500)
	exhaustedOnly := true
	if v := r.URL.Query().Get("exhausted"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			exhaustedOnly = b
		}
	}
	items, err := s.voteSvc.ListFailures(contextFromRequest(r), exhaustedOnly, limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
