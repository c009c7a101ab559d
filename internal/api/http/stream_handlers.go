package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/livestage/livestage/internal/domain/notification"
)

const (
	streamBuffer      = 64
	heartbeatInterval = 25 * time.Second
	wsWriteWait       = 10 * time.Second
	wsPongWait        = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// stream is one client's view of the hub: the room channel, optionally an
// activation channel, and a snapshot taken after subscribing so nothing
// published in between is lost.
type stream struct {
	events      chan *notification.Event
	unsubscribe []func()
}

func (st *stream) close() {
	for _, fn := range st.unsubscribe {
		fn()
	}
}

// streamChannels reads the room id and the optional activation query.
func streamChannels(r *http.Request) (uuid.UUID, []string, string) {
	roomID, err := parseUUIDParam(r, "roomId")
	if err != nil {
		return uuid.Nil, nil, "invalid room id"
	}
	channels := []string{notification.RoomChannel(roomID)}
	if raw := r.URL.Query().Get("activation"); raw != "" {
		activationID, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, nil, "invalid activation id"
		}
		channels = append(channels, notification.ActivationChannel(activationID))
	}
	return roomID, channels, ""
}

func (s *Server) openStream(ctx context.Context, roomID uuid.UUID, channels []string) (*stream, *notification.Event, error) {
	st := &stream{events: make(chan *notification.Event, streamBuffer)}
	for _, ch := range channels {
		st.unsubscribe = append(st.unsubscribe, s.hub.Subscribe(ch, func(ev *notification.Event) {
			select {
			case st.events <- ev:
			default:
			}
		}))
	}

	live, err := s.roomSvc.GetLiveState(ctx, roomID)
	if err != nil {
		st.close()
		return nil, nil, err
	}
	snapshot, err := notification.NewEvent(notification.EventSnapshot, notification.RoomChannel(roomID), live)
	if err != nil {
		st.close()
		return nil, nil, err
	}
	return st, snapshot, nil
}

func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID, channels, msg := streamChannels(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", msg)
		return
	}
	st, snapshot, err := s.openStream(ctx, roomID, channels)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	defer st.close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	writeSSE(w, snapshot)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case ev := <-st.events:
			writeSSE(w, ev)
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, ev *notification.Event) {
	payload, _ := json.Marshal(ev)
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n\n"))
}

func (s *Server) wsEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	roomID, channels, msg := streamChannels(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", msg)
		return
	}
	st, snapshot, err := s.openStream(ctx, roomID, channels)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	defer st.close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// incoming messages are ignored; reading keeps pongs and close frames flowing
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug().Err(err).Msg("websocket read ended")
				}
				return
			}
		}
	}()

	if err := writeWS(conn, snapshot); err != nil {
		return
	}
	ping := time.NewTicker(heartbeatInterval)
	defer ping.Stop()
	for {
		select {
		case ev := <-st.events:
			if err := writeWS(conn, ev); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		}
	}
}

func writeWS(conn *websocket.Conn, ev *notification.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(ev)
}
