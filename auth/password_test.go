package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("should verify the original password against its hash", func(t *testing.T) {
		req := require.New(t)

		hash, err := HashPassword("ComplexPass123!")
		req.NoError(err)
		req.NotContains(hash, "ComplexPass123!")

		match, err := ComparePassword("ComplexPass123!", hash)
		req.NoError(err)
		req.True(match)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		req := require.New(t)

		hash, err := HashPassword("ComplexPass123!")
		req.NoError(err)

		match, err := ComparePassword("WrongPass123!", hash)
		req.NoError(err)
		req.False(match)
	})

	t.Run("should salt hashes so equal passwords differ", func(t *testing.T) {
		req := require.New(t)

		first, err := HashPassword("ComplexPass123!")
		req.NoError(err)
		second, err := HashPassword("ComplexPass123!")
		req.NoError(err)
		req.NotEqual(first, second)
	})

	t.Run("should refuse a malformed encoded hash", func(t *testing.T) {
		req := require.New(t)

		_, err := ComparePassword("anything", "not-an-encoded-hash")
		req.Error(err)
	})
}

func TestValidateRegister(t *testing.T) {
	valid := RegisterRequest{Email: "alice@example.com", Password: "ComplexPass123!", FullName: "Alice"}

	t.Run("should accept a complete valid request", func(t *testing.T) {
		require.NoError(t, ValidateRegister(valid))
	})

	t.Run("should reject a malformed email", func(t *testing.T) {
		req := valid
		req.Email = "not-an-email"
		require.Error(t, ValidateRegister(req))
	})

	t.Run("should reject a short password", func(t *testing.T) {
		req := valid
		req.Password = "Short1!"
		require.Error(t, ValidateRegister(req))
	})

	t.Run("should reject a password without symbols", func(t *testing.T) {
		req := valid
		req.Password = "JustLettersAnd123"
		require.Error(t, ValidateRegister(req))
	})
}

func TestValidateProfileUpdate(t *testing.T) {
	t.Run("should accept empty optional fields", func(t *testing.T) {
		require.NoError(t, ValidateProfileUpdate(ProfileUpdateRequest{}))
	})

	t.Run("should reject an unknown gender", func(t *testing.T) {
		require.Error(t, ValidateProfileUpdate(ProfileUpdateRequest{Gender: "robot"}))
	})

	t.Run("should reject an oversized bio", func(t *testing.T) {
		long := make([]byte, 151)
		for i := range long {
			long[i] = 'a'
		}
		require.Error(t, ValidateProfileUpdate(ProfileUpdateRequest{Bio: string(long)}))
	})
}
