package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a change notification.
type EventType string

const (
	EventSnapshot           EventType = "snapshot"
	EventSessionUpdated     EventType = "session.updated"
	EventActivationUpdated  EventType = "activation.updated"
	EventActivationDeleted  EventType = "activation.deleted"
	EventPollTally          EventType = "poll.tally"
	EventLeaderboardUpdated EventType = "leaderboard.updated"
	EventLeaderChanged      EventType = "leaderboard.leader_changed"
	EventRoomReset          EventType = "room.reset"
	EventParticipantJoined  EventType = "participant.joined"
)

// RoomChannel carries session and activation level events for a room.
func RoomChannel(roomID uuid.UUID) string {
	return "room:" + roomID.String()
}

// ActivationChannel carries tally events while a poll is voting.
func ActivationChannel(activationID uuid.UUID) string {
	return "activation:" + activationID.String()
}

// Event is one message on a channel.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Channel   string          `json:"channel"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent marshals payload into a new event.
func NewEvent(eventType EventType, channel string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Channel:   channel,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Handler receives events for a subscription.
type Handler func(*Event)
