package httpapi

import (
	"net/http"
	"strings"

	"github.com/livestage/livestage/internal/domain/activation"
	"github.com/livestage/livestage/internal/domain/room"
)

type joinRoomRequest struct {
	DisplayName string `json:"display_name"`
}

type createTemplateRequest struct {
	Kind    activation.Kind    `json:"kind"`
	Content activation.Content `json:"content"`
}

type launchRequest struct {
	TemplateID string `json:"template_id"`
}

type resetRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) getLiveState(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	live, err := s.roomSvc.GetLiveState(contextFromRequest(r), roomID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, live)
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	if _, err := s.roomSvc.Get(contextFromRequest(r), roomID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	ranking, err := s.leaderboardSvc.Current(contextFromRequest(r), roomID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ranking)
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	var req joinRoomRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	p, err := s.roomSvc.JoinRoom(contextFromRequest(r), roomID, req.DisplayName)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	list, err := s.activationSvc.ListTemplates(contextFromRequest(r), roomID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": list})
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	var req createTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	kind := activation.Kind(strings.ToUpper(string(req.Kind)))
	t, err := s.activationSvc.CreateTemplate(contextFromRequest(r), roomID, kind, req.Content)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) launchActivation(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	var req launchRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	templateID, err := parseUUIDString(req.TemplateID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid template_id")
		return
	}
	res, err := s.activationSvc.Launch(contextFromRequest(r), roomID, templateID, actorFromRequest(r))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) resetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	var req resetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	mode := room.ResetMode(strings.ToUpper(req.Mode))
	if !mode.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "mode must be scores or full")
		return
	}
	sess, err := s.roomSvc.ResetRoom(contextFromRequest(r), roomID, mode)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"room_id": roomID, "mode": mode, "session": sess})
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
		return
	}
	st, err := s.sessionSvc.Clear(contextFromRequest(r), roomID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}
