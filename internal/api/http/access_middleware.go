package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type operatorContextKey string

const actorKey operatorContextKey = "actor"

func (s *Server) requireRoomOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID, err := parseUUIDParam(r, "roomId")
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid room id")
			return
		}
		s.authorize(w, r, next, roomID)
	})
}

// requireActivationOperator resolves the activation's room before asking the
// checker.
func (s *Server) requireActivationOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "activationId")
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid activation id")
			return
		}
		a, err := s.activationSvc.Get(r.Context(), id)
		if err != nil {
			s.respondServiceError(w, err)
			return
		}
		s.authorize(w, r, next, a.RoomID)
	})
}

// requireOperator guards room-independent operator endpoints.
func (s *Server) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.authorize(w, r, next, uuid.Nil)
	})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request, next http.Handler, roomID uuid.UUID) {
	if !s.checker.CanMutateRoom(r.Context(), extractToken(r), roomID) {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "operator key required")
		return
	}
	ctx := context.WithValue(r.Context(), actorKey, actorFromHeader(r))
	next.ServeHTTP(w, r.WithContext(ctx))
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

func actorFromHeader(r *http.Request) string {
	actor := strings.TrimSpace(r.Header.Get("X-Actor"))
	if actor == "" {
		actor = "operator"
	}
	return actor
}

func actorFromRequest(r *http.Request) string {
	if v, ok := r.Context().Value(actorKey).(string); ok && v != "" {
		return v
	}
	return actorFromHeader(r)
}
