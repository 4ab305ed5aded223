package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageID string

func (id MessageID) String() string { return string(id) }

func NewMessageID() MessageID { return MessageID(uuid.NewString()) }

type MessageType string

const (
	MessageText    MessageType = "text"
	MessageImage   MessageType = "image"
	MessageFile    MessageType = "file"
	MessageVoice   MessageType = "voice"
	MessageVideo   MessageType = "video"
	MessageSticker MessageType = "sticker"
	MessageSystem  MessageType = "system"
)

type Attachment struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// Message is a durable chat timeline entry. Reactions map a reaction label
// to the set of users who gave it; ReadBy and DeletedBy are per-user flags,
// so deleting hides the message for one user without touching the others.
type Message struct {
	ID            MessageID          `json:"id"`
	Chat          ChatID             `json:"chat"`
	Sender        UserID             `json:"sender"`
	Content       string             `json:"content,omitempty"`
	Type          MessageType        `json:"type"`
	Attachments   []Attachment       `json:"attachments,omitempty"`
	Reactions     map[string]UserSet `json:"reactions,omitempty"`
	ReplyTo       *MessageID         `json:"replyTo,omitempty"`
	Mentions      []UserID           `json:"mentions,omitempty"`
	ReadBy        UserSet            `json:"readBy"`
	DeletedBy     UserSet            `json:"deletedBy"`
	IsEdited      bool               `json:"isEdited"`
	IsForwarded   bool               `json:"isForwarded"`
	ForwardedFrom *ChatID            `json:"forwardedFrom,omitempty"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// AddReaction records a reaction; a user reacting twice with the same label
// keeps a single entry.
func (m *Message) AddReaction(user UserID, label string) {
	if m.Reactions == nil {
		m.Reactions = make(map[string]UserSet)
	}
	if m.Reactions[label] == nil {
		m.Reactions[label] = NewUserSet()
	}
	m.Reactions[label].Add(user)
}

// RemoveReaction drops the user's reaction under label. Removing a reaction
// the user never gave is a no-op; empty labels are pruned.
func (m *Message) RemoveReaction(user UserID, label string) {
	users, ok := m.Reactions[label]
	if !ok {
		return
	}
	users.Remove(user)
	if users.Len() == 0 {
		delete(m.Reactions, label)
	}
}

func (m Message) VisibleTo(user UserID) bool {
	return !m.DeletedBy.Has(user)
}
