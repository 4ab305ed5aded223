package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zchat/domain"
	"zchat/errors"
	"zchat/mocks"
)

func groupChat(id domain.ChatID, admins []domain.UserID, members ...domain.UserID) domain.Chat {
	return domain.Chat{
		ID:          id,
		Name:        "group",
		IsGroup:     true,
		Members:     domain.NewUserSet(members...),
		Admins:      domain.NewUserSet(admins...),
		UnreadCount: make(map[domain.UserID]int),
		IsActive:    true,
	}
}

// chatApplier wires UpdateChat so the patch runs against a real document.
func chatApplier(chat *domain.Chat) func(domain.ChatID, func(*domain.Chat) error) (domain.Chat, error) {
	return func(_ domain.ChatID, patch func(*domain.Chat) error) (domain.Chat, error) {
		if err := patch(chat); err != nil {
			return domain.Chat{}, err
		}
		return *chat, nil
	}
}

func TestChatService_CreatePrivateChat(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse a chat with oneself", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		svc := NewChatService(discardLogger(), mocks.NewMockIChatRepository(ctrl), mocks.NewMockIUserRepository(ctrl))
		_, err := svc.CreatePrivateChat(ctx, "alice", "alice")
		req.ErrorIs(err, errors.ErrSelfChat)
	})

	t.Run("should create an active two-member chat named after both users", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		users := mocks.NewMockIUserRepository(ctrl)
		users.EXPECT().GetUser(domain.UserID("alice")).Return(domain.User{ID: "alice", Username: "alice"}, nil)
		users.EXPECT().GetUser(domain.UserID("bob")).Return(domain.User{ID: "bob", Username: "bob"}, nil)

		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().
			EnsurePrivateChat(gomock.Any()).
			DoAndReturn(func(chat domain.Chat) (domain.Chat, bool, error) {
				return chat, true, nil
			})

		svc := NewChatService(discardLogger(), chats, users)
		chat, err := svc.CreatePrivateChat(ctx, "alice", "bob")

		req.NoError(err)
		req.False(chat.IsGroup)
		req.True(chat.IsActive)
		req.Equal("alice & bob", chat.Name)
		req.True(chat.HasMember("alice"))
		req.True(chat.HasMember("bob"))
	})

	t.Run("should hand back the existing chat for a known pair", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		users := mocks.NewMockIUserRepository(ctrl)
		users.EXPECT().GetUser(gomock.Any()).Return(domain.User{Username: "x"}, nil).Times(2)

		existing := domain.Chat{ID: "c-old", Members: domain.NewUserSet("alice", "bob"), IsActive: true}
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().EnsurePrivateChat(gomock.Any()).Return(existing, false, nil)

		svc := NewChatService(discardLogger(), chats, users)
		chat, err := svc.CreatePrivateChat(ctx, "alice", "bob")

		req.NoError(err)
		req.Equal(domain.ChatID("c-old"), chat.ID)
	})
}

func TestChatService_CreateGroupChat(t *testing.T) {
	ctx := context.Background()

	t.Run("should make the creator a member and sole admin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().CreateChat(gomock.Any()).Return(nil)

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		chat, err := svc.CreateGroupChat(ctx, "alice", "team", []domain.UserID{"bob", "carol"})

		req.NoError(err)
		req.True(chat.IsGroup)
		req.True(chat.HasMember("alice"))
		req.True(chat.HasAdmin("alice"))
		req.False(chat.HasAdmin("bob"))
		req.Equal(3, chat.Members.Len())
	})

	t.Run("should require a name", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		svc := NewChatService(discardLogger(), mocks.NewMockIChatRepository(ctrl), mocks.NewMockIUserRepository(ctrl))
		_, err := svc.CreateGroupChat(ctx, "alice", "   ", nil)
		req.ErrorIs(err, errors.ErrValidation)
	})
}

func TestChatService_GetChat(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	chats := mocks.NewMockIChatRepository(ctrl)
	chats.EXPECT().GetChat(domain.ChatID("c1")).Return(groupChat("c1", []domain.UserID{"alice"}, "alice", "bob"), nil).Times(2)

	svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))

	_, err := svc.GetChat(ctx, "c1", "alice")
	req.NoError(err)

	_, err = svc.GetChat(ctx, "c1", "mallory")
	req.ErrorIs(err, errors.ErrNotAMember)
}

func TestChatService_ListChats(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	old := groupChat("c1", []domain.UserID{"alice"}, "alice")
	old.UpdatedAt = time.Now().Add(-time.Hour)
	fresh := groupChat("c2", []domain.UserID{"alice"}, "alice")
	fresh.UpdatedAt = time.Now()
	closed := groupChat("c3", []domain.UserID{"alice"}, "alice")
	closed.IsActive = false

	chats := mocks.NewMockIChatRepository(ctrl)
	chats.EXPECT().ListChatsForUser(domain.UserID("alice")).Return([]domain.Chat{old, fresh, closed}, nil)

	svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
	got, err := svc.ListChats(ctx, "alice")

	req.NoError(err)
	req.Len(got, 2)
	// Deactivated chats are hidden; the rest sort most recent first.
	req.Equal(domain.ChatID("c2"), got[0].ID)
	req.Equal(domain.ChatID("c1"), got[1].ID)
}

func TestChatService_GroupMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse member mutations on a private chat", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		private := domain.Chat{ID: "c1", Members: domain.NewUserSet("alice", "bob"), Admins: domain.NewUserSet(), IsActive: true}
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&private))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		_, err := svc.AddMember(ctx, "c1", "alice", "carol")
		req.ErrorIs(err, errors.ErrInvalidChatKind)
	})

	t.Run("should require the admin role to add members", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chat := groupChat("c1", []domain.UserID{"alice"}, "alice", "bob")
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&chat))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		_, err := svc.AddMember(ctx, "c1", "bob", "carol")
		req.ErrorIs(err, errors.ErrNotAnAdmin)
	})

	t.Run("should let a member leave without the admin role", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chat := groupChat("c1", []domain.UserID{"alice"}, "alice", "bob")
		chat.UnreadCount["bob"] = 4
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&chat))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		got, err := svc.RemoveMember(ctx, "c1", "bob", "bob")

		req.NoError(err)
		req.False(got.HasMember("bob"))
		req.NotContains(got.UnreadCount, domain.UserID("bob"))
	})

	t.Run("should drop the admin role together with the membership", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chat := groupChat("c1", []domain.UserID{"alice", "bob"}, "alice", "bob")
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&chat))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		got, err := svc.RemoveMember(ctx, "c1", "alice", "bob")

		req.NoError(err)
		req.False(got.HasMember("bob"))
		req.False(got.HasAdmin("bob"))
	})

	t.Run("should only promote existing members", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chat := groupChat("c1", []domain.UserID{"alice"}, "alice", "bob")
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&chat))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		_, err := svc.AddAdmin(ctx, "c1", "alice", "stranger")
		req.ErrorIs(err, errors.ErrNotAMember)
	})
}

func TestChatService_DeactivateChat(t *testing.T) {
	ctx := context.Background()

	t.Run("should require an admin for groups", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chat := groupChat("c1", []domain.UserID{"alice"}, "alice", "bob")
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&chat))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		_, err := svc.DeactivateChat(ctx, "c1", "bob")
		req.ErrorIs(err, errors.ErrNotAnAdmin)
	})

	t.Run("should let either member close a private chat", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		private := domain.Chat{ID: "c1", Members: domain.NewUserSet("alice", "bob"), Admins: domain.NewUserSet(), IsActive: true}
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&private))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		got, err := svc.DeactivateChat(ctx, "c1", "bob")

		req.NoError(err)
		req.False(got.IsActive)
	})
}

func TestChatService_ResetUnread(t *testing.T) {
	ctx := context.Background()

	t.Run("should zero only the caller's counter", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chat := groupChat("c1", []domain.UserID{"alice"}, "alice", "bob")
		chat.UnreadCount["alice"] = 7
		chat.UnreadCount["bob"] = 3

		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&chat))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		got, err := svc.ResetUnread(ctx, "c1", "alice")

		req.NoError(err)
		req.Equal(0, got.UnreadFor("alice"))
		req.Equal(3, got.UnreadFor("bob"))
	})

	t.Run("should refuse non-members", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		chat := groupChat("c1", []domain.UserID{"alice"}, "alice")
		chats := mocks.NewMockIChatRepository(ctrl)
		chats.EXPECT().UpdateChat(domain.ChatID("c1"), gomock.Any()).DoAndReturn(chatApplier(&chat))

		svc := NewChatService(discardLogger(), chats, mocks.NewMockIUserRepository(ctrl))
		_, err := svc.ResetUnread(ctx, "c1", "mallory")
		req.ErrorIs(err, errors.ErrNotAMember)
	})
}
