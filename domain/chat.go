package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type ChatID string

func (id ChatID) String() string { return string(id) }

func NewChatID() ChatID { return ChatID(uuid.NewString()) }

// Chat is a conversation document. For private chats Members always holds
// exactly two users and Admins stays empty; member/admin mutations are only
// legal on groups.
type Chat struct {
	ID          ChatID            `json:"id"`
	Name        string            `json:"name"`
	IsGroup     bool              `json:"isGroup"`
	Avatar      string            `json:"avatar,omitempty"`
	Members     UserSet           `json:"members"`
	Admins      UserSet           `json:"admins"`
	LastMessage *MessageID        `json:"lastMessage,omitempty"`
	UnreadCount map[UserID]int    `json:"unreadCount"`
	IsActive    bool              `json:"isActive"`
	Settings    map[string]string `json:"settings,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// PairKey builds the canonical identity of a private chat between two users.
// Argument order never matters, which is what makes private-chat creation
// idempotent by membership pair.
func PairKey(a, b UserID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}

func (c Chat) HasMember(id UserID) bool { return c.Members.Has(id) }
func (c Chat) HasAdmin(id UserID) bool  { return c.Admins.Has(id) }

// UnreadFor returns the member's counter; absent entries read as zero.
func (c Chat) UnreadFor(id UserID) int {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[id]
}
