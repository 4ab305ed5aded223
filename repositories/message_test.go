package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zchat/domain"
	zerrors "zchat/errors"
)

func testMessage(id domain.MessageID, chat domain.ChatID, sender domain.UserID, at time.Time) domain.Message {
	return domain.Message{
		ID:        id,
		Chat:      chat,
		Sender:    sender,
		Content:   "content of " + id.String(),
		Type:      domain.MessageText,
		ReadBy:    domain.NewUserSet(),
		DeletedBy: domain.NewUserSet(),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestMessageRepository_CreateAndGet(t *testing.T) {
	t.Run("should store and retrieve a message by id", func(t *testing.T) {
		req := require.New(t)
		repo := NewMessageRepository(newTestDB(t))

		msg := testMessage("m1", "c1", "alice", time.Now().UTC())
		req.NoError(repo.CreateMessage(msg))

		got, err := repo.GetMessage("m1")
		req.NoError(err)
		req.Equal(msg.Content, got.Content)
		req.Equal(msg.Chat, got.Chat)
	})

	t.Run("should map a missing message to the domain error", func(t *testing.T) {
		req := require.New(t)
		repo := NewMessageRepository(newTestDB(t))

		_, err := repo.GetMessage("ghost")
		req.ErrorIs(err, zerrors.ErrMessageNotFound)
	})
}

func TestMessageRepository_ListMessages(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := domain.MessageID(fmt.Sprintf("m%d", i))
		req.NoError(repo.CreateMessage(testMessage(id, "c1", "alice", base.Add(time.Duration(i)*time.Second))))
	}
	// A message in another chat must not leak into the listing.
	req.NoError(repo.CreateMessage(testMessage("other", "c2", "alice", base)))

	t.Run("should return the newest page first", func(t *testing.T) {
		msgs, err := repo.ListMessages("c1", 1, 2)
		req.NoError(err)
		req.Len(msgs, 2)
		req.Equal(domain.MessageID("m4"), msgs[0].ID)
		req.Equal(domain.MessageID("m3"), msgs[1].ID)
	})

	t.Run("should continue where the previous page stopped", func(t *testing.T) {
		msgs, err := repo.ListMessages("c1", 2, 2)
		req.NoError(err)
		req.Len(msgs, 2)
		req.Equal(domain.MessageID("m2"), msgs[0].ID)
		req.Equal(domain.MessageID("m1"), msgs[1].ID)
	})

	t.Run("should return a short final page", func(t *testing.T) {
		msgs, err := repo.ListMessages("c1", 3, 2)
		req.NoError(err)
		req.Len(msgs, 1)
		req.Equal(domain.MessageID("m0"), msgs[0].ID)
	})

	t.Run("should return nothing past the end", func(t *testing.T) {
		msgs, err := repo.ListMessages("c1", 4, 2)
		req.NoError(err)
		req.Empty(msgs)
	})
}

func TestMessageRepository_UpdateMessage(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t))

	created := time.Now().UTC()
	req.NoError(repo.CreateMessage(testMessage("m1", "c1", "alice", created)))

	updated, err := repo.UpdateMessage("m1", func(m *domain.Message) error {
		m.Content = "edited"
		m.IsEdited = true
		return nil
	})
	req.NoError(err)
	req.True(updated.IsEdited)

	// The edit must not duplicate the timeline entry.
	msgs, err := repo.ListMessages("c1", 1, 10)
	req.NoError(err)
	req.Len(msgs, 1)
	req.Equal("edited", msgs[0].Content)
}

func TestMessageRepository_Scans(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fromAlice := testMessage("m1", "c1", "alice", base)
	fromBob := testMessage("m2", "c1", "bob", base.Add(time.Second))
	fromBob.ReadBy.Add("alice")
	image := testMessage("m3", "c1", "bob", base.Add(2*time.Second))
	image.Type = domain.MessageImage

	req.NoError(repo.CreateMessage(fromAlice))
	req.NoError(repo.CreateMessage(fromBob))
	req.NoError(repo.CreateMessage(image))

	t.Run("should list unread messages from other senders only", func(t *testing.T) {
		msgs, err := repo.ListUnread("c1", "alice")
		req.NoError(err)
		req.Len(msgs, 1)
		req.Equal(domain.MessageID("m3"), msgs[0].ID)
	})

	t.Run("should list messages of one type", func(t *testing.T) {
		msgs, err := repo.ListByType("c1", domain.MessageImage)
		req.NoError(err)
		req.Len(msgs, 1)
		req.Equal(domain.MessageID("m3"), msgs[0].ID)
	})
}
