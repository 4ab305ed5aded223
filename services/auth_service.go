// Package services orchestrates the directory store, the search index, and
// the event router. All business rules live here; transports stay thin.
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"zchat/auth"
	"zchat/contract"
	"zchat/domain"
	"zchat/errors"
	"zchat/repositories"
)

// Token is an opaque signed session credential.
type Token string

// UserIndex is the slice of the search index the user-facing services need.
type UserIndex interface {
	IndexUser(user domain.User) error
	SearchUsers(ctx context.Context, query string) ([]domain.UserID, error)
}

type IAuthService interface {
	Register(ctx context.Context, email, password, fullName string) (Token, domain.User, error)
	Login(ctx context.Context, email, password string) (Token, domain.User, error)
	Verify(ctx context.Context, user domain.UserID, code string) error
	Logout(ctx context.Context, user domain.UserID) error
}

type AuthService struct {
	users    repositories.IUserRepository
	index    UserIndex
	tokens   *auth.TokenManager
	notifier contract.NotificationSink
	log      *slog.Logger
}

func NewAuthService(log *slog.Logger, users repositories.IUserRepository, index UserIndex,
	tokens *auth.TokenManager, notifier contract.NotificationSink) *AuthService {
	return &AuthService{users: users, index: index, tokens: tokens, notifier: notifier, log: log}
}

const verificationTTL = 10 * time.Minute

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (Token, domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// Validation comes before any expensive cryptographic work.
	req := auth.RegisterRequest{Email: email, Password: password, FullName: fullName}
	if err := auth.ValidateRegister(req); err != nil {
		return "", domain.User{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	code, err := verificationCode()
	if err != nil {
		return "", domain.User{}, err
	}
	expires := time.Now().UTC().Add(verificationTTL)

	now := time.Now().UTC()
	user := domain.User{
		ID:           domain.UserID(uuid.NewString()),
		Email:        email,
		Username:     strings.SplitN(email, "@", 2)[0],
		FullName:     fullName,
		PasswordHash: hashed,
		Settings:     domain.UserSettings{Notifications: true, Privacy: domain.PrivacyFriends},

		Friends:                domain.NewUserSet(),
		SentFriendRequests:     domain.NewUserSet(),
		ReceivedFriendRequests: domain.NewUserSet(),
		BlockedUsers:           domain.NewUserSet(),

		VerificationCode:        code,
		VerificationCodeExpires: &expires,

		IsActive:   true,
		LastActive: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.users.CreateUser(user); err != nil {
		return "", domain.User{}, err // propagates ErrUserAlreadyExists
	}

	// The index is derivative state; losing an entry only degrades search.
	if err := s.index.IndexUser(user); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to index user %s: %v", user.ID, err))
	}
	if err := s.notifier.SendVerificationCode(ctx, user.Email, code); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to dispatch verification code for %s: %v", user.ID, err))
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Token, domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent account enumeration.
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	user, err = s.users.UpdateUser(user.ID, func(u *domain.User) error {
		u.LastActive = time.Now().UTC()
		return nil
	})
	if err != nil {
		return "", domain.User{}, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

// Verify consumes the emailed verification code.
func (s *AuthService) Verify(_ context.Context, user domain.UserID, code string) error {
	_, err := s.users.UpdateUser(user, func(u *domain.User) error {
		if u.VerificationCode == "" || u.VerificationCode != code {
			return errors.ErrVerificationCode
		}
		if u.VerificationCodeExpires == nil || u.VerificationCodeExpires.Before(time.Now().UTC()) {
			return errors.ErrVerificationCode
		}
		u.IsVerified = true
		u.VerificationCode = ""
		u.VerificationCodeExpires = nil
		return nil
	})
	return err
}

// Logout only records activity; tokens are stateless and expire on their
// own.
func (s *AuthService) Logout(_ context.Context, user domain.UserID) error {
	_, err := s.users.UpdateUser(user, func(u *domain.User) error {
		u.LastActive = time.Now().UTC()
		return nil
	})
	return err
}

// verificationCode draws a 6-digit code from crypto/rand.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
