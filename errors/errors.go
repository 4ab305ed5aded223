// Package errors defines the error taxonomy shared by services and the HTTP
// boundary. Services return these sentinels (possibly wrapped); handlers map
// them to a status code with MapToHTTPStatus.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrChatNotFound    = fmt.Errorf("chat not found")
	ErrMessageNotFound = fmt.Errorf("message not found")

	// ErrInvalidChatKind is returned for member/admin mutations on a chat
	// that is not a group.
	ErrInvalidChatKind = fmt.Errorf("operation not allowed on a private chat")

	ErrNotAMember        = fmt.Errorf("user is not a member of this chat")
	ErrNotAnAdmin        = fmt.Errorf("user is not an admin of this chat")
	ErrChatInactive      = fmt.Errorf("chat is no longer active")
	ErrSelfChat          = fmt.Errorf("cannot open a private chat with yourself")
	ErrEmptyMessage      = fmt.Errorf("message has no content and no attachments")
	ErrNotTheSender      = fmt.Errorf("only the sender can modify this message")
	ErrUnsupportedUpload = fmt.Errorf("unsupported upload content type")

	ErrUserAlreadyExists  = fmt.Errorf("a user with this email already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrValidation         = fmt.Errorf("invalid input")
	ErrTokenGeneration    = fmt.Errorf("failed to generate token")
	ErrUnauthorized       = fmt.Errorf("missing or invalid credentials")
	ErrVerificationCode   = fmt.Errorf("verification code is invalid or expired")
)

// MapToHTTPStatus converts a service error into the HTTP status the REST
// boundary should answer with. Unknown errors are treated as internal.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrChatNotFound),
		errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAMember),
		errors.Is(err, ErrNotAnAdmin),
		errors.Is(err, ErrNotTheSender):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidChatKind),
		errors.Is(err, ErrChatInactive),
		errors.Is(err, ErrSelfChat),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrVerificationCode),
		errors.Is(err, ErrUnsupportedUpload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
