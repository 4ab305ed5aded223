// Package domain contains the core entities of the chat system: users,
// chats, messages, and the set semantics their membership lists rely on.
// No storage, network, or transport logic lives here.
package domain

import "time"

type UserID string

func (id UserID) String() string { return string(id) }

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

type UserSettings struct {
	Notifications bool    `json:"notifications"`
	Privacy       Privacy `json:"privacy"`
}

// User is the durable account record. Friend and request lists are real
// sets; pending requests are tracked on both sides so either user can
// resolve them without a join.
type User struct {
	ID           UserID       `json:"id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	FullName     string       `json:"fullName"`
	PasswordHash string       `json:"-"`
	Avatar       string       `json:"avatar,omitempty"`
	CoverPhoto   string       `json:"coverPhoto,omitempty"`
	Bio          string       `json:"bio,omitempty"`
	Gender       Gender       `json:"gender,omitempty"`
	DateOfBirth  *time.Time   `json:"dateOfBirth,omitempty"`
	Settings     UserSettings `json:"settings"`

	Friends                UserSet `json:"friends"`
	SentFriendRequests     UserSet `json:"sentFriendRequests"`
	ReceivedFriendRequests UserSet `json:"receivedFriendRequests"`
	BlockedUsers           UserSet `json:"blockedUsers"`

	IsVerified              bool       `json:"isVerified"`
	VerificationCode        string     `json:"-"`
	VerificationCodeExpires *time.Time `json:"-"`

	IsActive   bool      `json:"isActive"`
	LastActive time.Time `json:"lastActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public strips everything another user has no business seeing.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
		Bio:      u.Bio,
	}
}

// PublicUser is the profile shape embedded in chat member listings and
// search results.
type PublicUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}
