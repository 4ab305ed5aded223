package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"zchat/domain"
	zerrors "zchat/errors"
)

func testPrivateChat(id domain.ChatID, a, b domain.UserID) domain.Chat {
	return domain.Chat{
		ID:          id,
		Name:        "a & b",
		IsGroup:     false,
		Members:     domain.NewUserSet(a, b),
		Admins:      domain.NewUserSet(),
		UnreadCount: make(map[domain.UserID]int),
		IsActive:    true,
	}
}

func testGroupChat(id domain.ChatID, members ...domain.UserID) domain.Chat {
	return domain.Chat{
		ID:          id,
		Name:        "group",
		IsGroup:     true,
		Members:     domain.NewUserSet(members...),
		Admins:      domain.NewUserSet(members[0]),
		UnreadCount: make(map[domain.UserID]int),
		IsActive:    true,
	}
}

func TestChatRepository_CreateAndGet(t *testing.T) {
	t.Run("should store and retrieve a chat", func(t *testing.T) {
		req := require.New(t)
		repo := NewChatRepository(newTestDB(t))

		chat := testGroupChat("c1", "alice", "bob")
		req.NoError(repo.CreateChat(chat))

		got, err := repo.GetChat("c1")
		req.NoError(err)
		req.Equal(chat.Name, got.Name)
		req.True(got.HasMember("alice"))
		req.True(got.HasAdmin("alice"))
		req.False(got.HasAdmin("bob"))
	})

	t.Run("should map a missing chat to the domain error", func(t *testing.T) {
		req := require.New(t)
		repo := NewChatRepository(newTestDB(t))

		_, err := repo.GetChat("ghost")
		req.ErrorIs(err, zerrors.ErrChatNotFound)
	})
}

func TestChatRepository_EnsurePrivateChat(t *testing.T) {
	t.Run("should create the chat on first call and reuse it afterwards", func(t *testing.T) {
		req := require.New(t)
		repo := NewChatRepository(newTestDB(t))

		first, created, err := repo.EnsurePrivateChat(testPrivateChat("c1", "alice", "bob"))
		req.NoError(err)
		req.True(created)
		req.Equal(domain.ChatID("c1"), first.ID)

		// Same pair, different candidate id: the existing chat wins.
		second, created, err := repo.EnsurePrivateChat(testPrivateChat("c2", "bob", "alice"))
		req.NoError(err)
		req.False(created)
		req.Equal(domain.ChatID("c1"), second.ID)
	})
}

func TestChatRepository_ListChatsForUser(t *testing.T) {
	req := require.New(t)
	repo := NewChatRepository(newTestDB(t))

	req.NoError(repo.CreateChat(testGroupChat("c1", "alice", "bob")))
	req.NoError(repo.CreateChat(testGroupChat("c2", "alice", "carol")))
	req.NoError(repo.CreateChat(testGroupChat("c3", "bob", "carol")))

	chats, err := repo.ListChatsForUser("alice")
	req.NoError(err)
	req.Len(chats, 2)

	chats, err = repo.ListChatsForUser("dave")
	req.NoError(err)
	req.Empty(chats)
}

func TestChatRepository_UpdateChat(t *testing.T) {
	t.Run("should persist counter increments", func(t *testing.T) {
		req := require.New(t)
		repo := NewChatRepository(newTestDB(t))

		req.NoError(repo.CreateChat(testGroupChat("c1", "alice", "bob")))

		for i := 0; i < 3; i++ {
			_, err := repo.UpdateChat("c1", func(c *domain.Chat) error {
				c.UnreadCount["bob"]++
				return nil
			})
			req.NoError(err)
		}

		got, err := repo.GetChat("c1")
		req.NoError(err)
		req.Equal(3, got.UnreadFor("bob"))
	})

	t.Run("should drop the membership index of removed members", func(t *testing.T) {
		req := require.New(t)
		repo := NewChatRepository(newTestDB(t))

		req.NoError(repo.CreateChat(testGroupChat("c1", "alice", "bob")))

		_, err := repo.UpdateChat("c1", func(c *domain.Chat) error {
			c.Members.Remove("bob")
			return nil
		})
		req.NoError(err)

		chats, err := repo.ListChatsForUser("bob")
		req.NoError(err)
		req.Empty(chats)
	})

	t.Run("should index newly added members", func(t *testing.T) {
		req := require.New(t)
		repo := NewChatRepository(newTestDB(t))

		req.NoError(repo.CreateChat(testGroupChat("c1", "alice", "bob")))

		_, err := repo.UpdateChat("c1", func(c *domain.Chat) error {
			c.Members.Add("carol")
			return nil
		})
		req.NoError(err)

		chats, err := repo.ListChatsForUser("carol")
		req.NoError(err)
		req.Len(chats, 1)
	})
}

func TestChatRepository_UpdateChat_ConflictRetry(t *testing.T) {
	req := require.New(t)
	repo := NewChatRepository(newTestDB(t))

	chat := testGroupChat("c1", "a", "b", "c")
	chat.UnreadCount = map[domain.UserID]int{"a": 2, "b": 2, "c": 2}
	req.NoError(repo.CreateChat(chat))

	// The first attempt loses a race against a commit that removes member b.
	// The retry must unmarshal into a fresh document; merging into the stale
	// one would bring b's counter back from the dead.
	attempts := 0
	got, err := repo.UpdateChat("c1", func(c *domain.Chat) error {
		attempts++
		if attempts == 1 {
			_, err := repo.UpdateChat("c1", func(inner *domain.Chat) error {
				inner.Members.Remove("b")
				delete(inner.UnreadCount, "b")
				return nil
			})
			req.NoError(err)
		}
		c.UnreadCount["c"]++
		return nil
	})

	req.NoError(err)
	req.Equal(2, attempts)
	req.False(got.Members.Has("b"))
	req.NotContains(got.UnreadCount, "b")
	req.Equal(3, got.UnreadCount["c"])

	stored, err := repo.GetChat("c1")
	req.NoError(err)
	req.False(stored.Members.Has("b"))
	req.NotContains(stored.UnreadCount, "b")
	req.Equal(3, stored.UnreadCount["c"])
}
