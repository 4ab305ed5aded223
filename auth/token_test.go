package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zchat/domain"
)

func TestTokenManager(t *testing.T) {
	t.Run("should round-trip the user id through a signed token", func(t *testing.T) {
		req := require.New(t)
		manager := NewTokenManager("secret", time.Hour)

		token, err := manager.Generate(domain.UserID("u1"))
		req.NoError(err)

		claims, err := manager.Validate(token)
		req.NoError(err)
		req.Equal(domain.UserID("u1"), claims.UserID)
	})

	t.Run("should reject a token signed with a different secret", func(t *testing.T) {
		req := require.New(t)

		token, err := NewTokenManager("secret-a", time.Hour).Generate("u1")
		req.NoError(err)

		_, err = NewTokenManager("secret-b", time.Hour).Validate(token)
		req.Error(err)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)
		manager := NewTokenManager("secret", -time.Minute)

		token, err := manager.Generate("u1")
		req.NoError(err)

		_, err = manager.Validate(token)
		req.Error(err)
	})

	t.Run("should reject garbage input", func(t *testing.T) {
		req := require.New(t)
		_, err := NewTokenManager("secret", time.Hour).Validate("not.a.token")
		req.Error(err)
	})
}
