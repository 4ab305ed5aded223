package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"zchat/domain"
	"zchat/domain/event"
)

// Frame is the envelope for every message on the realtime channel, in both
// directions. Event names follow the socket contract: user_connected,
// private_message, friend_request, friend_request_response.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type userConnectedPayload struct {
	UserID domain.UserID `json:"userId"`
}

type privateMessagePayload struct {
	To      domain.UserID `json:"to,omitempty"`
	From    string        `json:"from,omitempty"`
	Message string        `json:"message"`
}

type friendRequestPayload struct {
	From domain.UserID `json:"from"`
	To   domain.UserID `json:"to"`
}

type friendRequestResponsePayload struct {
	From     domain.UserID `json:"from"`
	To       domain.UserID `json:"to"`
	Accepted bool          `json:"accepted"`
}

type presenceChangedPayload struct {
	User   domain.UserID `json:"user"`
	Online bool          `json:"online"`
	At     time.Time     `json:"at"`
}

// encodeEvent turns a routed domain event into its outbound frame.
func encodeEvent(e event.DomainEvent) ([]byte, error) {
	var payload any
	switch evt := e.(type) {
	case event.PrivateMessage:
		payload = privateMessagePayload{From: evt.From, Message: evt.Message}
	case event.FriendRequestCreated:
		payload = friendRequestPayload{From: evt.From, To: evt.To}
	case event.FriendRequestResolved:
		payload = friendRequestResponsePayload{From: evt.From, To: evt.To, Accepted: evt.Accepted}
	case event.PresenceChanged:
		payload = presenceChangedPayload{User: evt.User, Online: evt.Online, At: evt.At}
	default:
		return nil, fmt.Errorf("no wire encoding for event %q", e.Name())
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: e.Name(), Data: data})
}

func decodePayload[T any](data json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("malformed payload: %w", err)
	}
	return payload, nil
}
