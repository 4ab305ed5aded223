// Package event defines the transient notifications pushed over live
// connections. Events are never persisted; a target with no registered
// handles simply never sees them.
package event

import (
	"time"

	"zchat/domain"
)

// DomainEvent is the tagged union routed by the event router. Target names
// the single user whose handles should receive the event.
type DomainEvent interface {
	Target() domain.UserID
	Name() string
}

// PrivateMessage is the ephemeral direct-message pass-through. From carries
// the sender's connection handle id, matching the source behavior of
// answering with the socket id rather than the account id.
type PrivateMessage struct {
	To      domain.UserID
	From    string
	Message string
}

func (e PrivateMessage) Target() domain.UserID { return e.To }
func (e PrivateMessage) Name() string          { return "private_message" }

type FriendRequestCreated struct {
	From domain.UserID
	To   domain.UserID
}

func (e FriendRequestCreated) Target() domain.UserID { return e.To }
func (e FriendRequestCreated) Name() string          { return "friend_request" }

// FriendRequestResolved notifies the original requester of the outcome.
type FriendRequestResolved struct {
	From     domain.UserID // user who answered
	To       domain.UserID // user who sent the original request
	Accepted bool
}

func (e FriendRequestResolved) Target() domain.UserID { return e.To }
func (e FriendRequestResolved) Name() string          { return "friend_request_response" }

type PresenceChanged struct {
	To     domain.UserID // recipient of the notification
	User   domain.UserID // user whose presence changed
	Online bool
	At     time.Time
}

func (e PresenceChanged) Target() domain.UserID { return e.To }
func (e PresenceChanged) Name() string          { return "presence_changed" }
