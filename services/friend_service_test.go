package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zchat/domain"
	"zchat/errors"
	"zchat/mocks"
)

func blankUser(id domain.UserID) domain.User {
	return domain.User{
		ID:                     id,
		Friends:                domain.NewUserSet(),
		SentFriendRequests:     domain.NewUserSet(),
		ReceivedFriendRequests: domain.NewUserSet(),
		BlockedUsers:           domain.NewUserSet(),
	}
}

// pairApplier wires the mock so the two patches run against real documents,
// letting assertions inspect the resulting state.
func pairApplier(userA, userB *domain.User) func(domain.UserID, domain.UserID, func(*domain.User) error, func(*domain.User) error) error {
	return func(_, _ domain.UserID, patchA, patchB func(*domain.User) error) error {
		if err := patchA(userA); err != nil {
			return err
		}
		return patchB(userB)
	}
}

func TestFriendService_SendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("should record the pending request on both sides", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		alice := blankUser("alice")
		bob := blankUser("bob")
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		mockRepo.EXPECT().
			UpdateUserPair(domain.UserID("alice"), domain.UserID("bob"), gomock.Any(), gomock.Any()).
			DoAndReturn(pairApplier(&alice, &bob))

		svc := NewFriendService(discardLogger(), mockRepo)
		req.NoError(svc.SendRequest(ctx, "alice", "bob"))

		req.True(alice.SentFriendRequests.Has("bob"))
		req.True(bob.ReceivedFriendRequests.Has("alice"))
	})

	t.Run("should refuse a self request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		svc := NewFriendService(discardLogger(), mocks.NewMockIUserRepository(ctrl))
		err := svc.SendRequest(ctx, "alice", "alice")
		req.ErrorIs(err, errors.ErrValidation)
	})
}

func TestFriendService_Respond(t *testing.T) {
	ctx := context.Background()

	pending := func() (domain.User, domain.User) {
		bob := blankUser("bob")
		alice := blankUser("alice")
		alice.SentFriendRequests.Add("bob")
		bob.ReceivedFriendRequests.Add("alice")
		return bob, alice
	}

	t.Run("should establish a mutual friendship on accept", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		bob, alice := pending()
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		mockRepo.EXPECT().
			UpdateUserPair(domain.UserID("bob"), domain.UserID("alice"), gomock.Any(), gomock.Any()).
			DoAndReturn(pairApplier(&bob, &alice))

		svc := NewFriendService(discardLogger(), mockRepo)
		req.NoError(svc.Respond(ctx, "bob", "alice", true))

		req.True(bob.Friends.Has("alice"))
		req.True(alice.Friends.Has("bob"))
		req.False(bob.ReceivedFriendRequests.Has("alice"))
		req.False(alice.SentFriendRequests.Has("bob"))
	})

	t.Run("should only clear the pending entries on decline", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		bob, alice := pending()
		mockRepo := mocks.NewMockIUserRepository(ctrl)
		mockRepo.EXPECT().
			UpdateUserPair(domain.UserID("bob"), domain.UserID("alice"), gomock.Any(), gomock.Any()).
			DoAndReturn(pairApplier(&bob, &alice))

		svc := NewFriendService(discardLogger(), mockRepo)
		req.NoError(svc.Respond(ctx, "bob", "alice", false))

		req.False(bob.Friends.Has("alice"))
		req.False(alice.Friends.Has("bob"))
		req.False(bob.ReceivedFriendRequests.Has("alice"))
		req.False(alice.SentFriendRequests.Has("bob"))
	})
}

func TestFriendService_Block(t *testing.T) {
	ctx := context.Background()

	t.Run("should sever the friendship and pending requests in both directions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		alice := blankUser("alice")
		bob := blankUser("bob")
		alice.Friends.Add("bob")
		bob.Friends.Add("alice")
		alice.ReceivedFriendRequests.Add("bob")
		bob.SentFriendRequests.Add("alice")

		mockRepo := mocks.NewMockIUserRepository(ctrl)
		mockRepo.EXPECT().
			UpdateUserPair(domain.UserID("alice"), domain.UserID("bob"), gomock.Any(), gomock.Any()).
			DoAndReturn(pairApplier(&alice, &bob))

		svc := NewFriendService(discardLogger(), mockRepo)
		req.NoError(svc.Block(ctx, "alice", "bob"))

		req.True(alice.BlockedUsers.Has("bob"))
		req.False(alice.Friends.Has("bob"))
		req.False(bob.Friends.Has("alice"))
		req.False(alice.ReceivedFriendRequests.Has("bob"))
		req.False(bob.SentFriendRequests.Has("alice"))
		// Blocking is one-directional; bob's block list is untouched.
		req.False(bob.BlockedUsers.Has("alice"))
	})

	t.Run("should refuse a self block", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		svc := NewFriendService(discardLogger(), mocks.NewMockIUserRepository(ctrl))
		req.ErrorIs(svc.Block(ctx, "alice", "alice"), errors.ErrValidation)
	})
}

func TestFriendService_FriendsOf(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	alice := blankUser("alice")
	alice.Friends.Add("bob")
	alice.Friends.Add("carol")

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockRepo.EXPECT().GetUser(domain.UserID("alice")).Return(alice, nil)

	svc := NewFriendService(discardLogger(), mockRepo)
	friends, err := svc.FriendsOf(context.Background(), "alice")

	req.NoError(err)
	req.ElementsMatch([]domain.UserID{"bob", "carol"}, friends)
}
