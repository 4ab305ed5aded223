package services

import (
	"context"
	"fmt"
	"log/slog"

	"zchat/domain"
	"zchat/errors"
	"zchat/repositories"
)

type IFriendService interface {
	SendRequest(ctx context.Context, from, to domain.UserID) error
	Respond(ctx context.Context, responder, requester domain.UserID, accepted bool) error
	Block(ctx context.Context, user, target domain.UserID) error
	FriendsOf(ctx context.Context, user domain.UserID) ([]domain.UserID, error)
}

// FriendService applies friend-request state transitions. Every transition
// touches two user documents; the pair update keeps them consistent inside
// one storage transaction.
type FriendService struct {
	users repositories.IUserRepository
	log   *slog.Logger
}

func NewFriendService(log *slog.Logger, users repositories.IUserRepository) *FriendService {
	return &FriendService{users: users, log: log}
}

// SendRequest records a pending request on both sides. Sending twice is a
// no-op thanks to set semantics.
func (s *FriendService) SendRequest(_ context.Context, from, to domain.UserID) error {
	if from == to {
		return fmt.Errorf("%w: cannot befriend yourself", errors.ErrValidation)
	}
	return s.users.UpdateUserPair(from, to,
		func(u *domain.User) error {
			u.SentFriendRequests.Add(to)
			return nil
		},
		func(u *domain.User) error {
			u.ReceivedFriendRequests.Add(from)
			return nil
		})
}

// Respond resolves a pending request: accepted establishes a mutual
// friendship, declined just clears the pending entries. Both outcomes clear
// the pending lists on both sides.
func (s *FriendService) Respond(_ context.Context, responder, requester domain.UserID, accepted bool) error {
	return s.users.UpdateUserPair(responder, requester,
		func(u *domain.User) error {
			u.ReceivedFriendRequests.Remove(requester)
			if accepted {
				u.Friends.Add(requester)
			}
			return nil
		},
		func(u *domain.User) error {
			u.SentFriendRequests.Remove(responder)
			if accepted {
				u.Friends.Add(responder)
			}
			return nil
		})
}

// Block removes any friendship and any pending request in either direction,
// atomically with respect to both user documents, and records the block on
// the blocker.
func (s *FriendService) Block(_ context.Context, user, target domain.UserID) error {
	if user == target {
		return fmt.Errorf("%w: cannot block yourself", errors.ErrValidation)
	}
	return s.users.UpdateUserPair(user, target,
		func(u *domain.User) error {
			u.BlockedUsers.Add(target)
			u.Friends.Remove(target)
			u.SentFriendRequests.Remove(target)
			u.ReceivedFriendRequests.Remove(target)
			return nil
		},
		func(u *domain.User) error {
			u.Friends.Remove(user)
			u.SentFriendRequests.Remove(user)
			u.ReceivedFriendRequests.Remove(user)
			return nil
		})
}

func (s *FriendService) FriendsOf(_ context.Context, user domain.UserID) ([]domain.UserID, error) {
	u, err := s.users.GetUser(user)
	if err != nil {
		return nil, err
	}
	return u.Friends.Values(), nil
}
