package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"zchat/domain"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndex_SearchMessages(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	idx := newTestIndex(t)

	req.NoError(idx.IndexMessage(domain.Message{ID: "m1", Chat: "c1", Content: "deployment went fine"}))
	req.NoError(idx.IndexMessage(domain.Message{ID: "m2", Chat: "c1", Content: "lunch at noon"}))
	req.NoError(idx.IndexMessage(domain.Message{ID: "m3", Chat: "c2", Content: "deployment broke again"}))
	req.NoError(idx.IndexMessage(domain.Message{
		ID:          "m4",
		Chat:        "c1",
		Attachments: []domain.Attachment{{URL: "/f", Name: "deployment-plan.pdf"}},
	}))

	t.Run("should scope hits to one chat", func(t *testing.T) {
		ids, err := idx.SearchMessages(ctx, "c1", "deployment")
		req.NoError(err)
		req.ElementsMatch([]domain.MessageID{"m1", "m4"}, ids)
	})

	t.Run("should match attachment names", func(t *testing.T) {
		ids, err := idx.SearchMessages(ctx, "c1", "plan")
		req.NoError(err)
		req.Contains(ids, domain.MessageID("m4"))
	})

	t.Run("should return nothing for a query with no hits", func(t *testing.T) {
		ids, err := idx.SearchMessages(ctx, "c1", "zzzzz")
		req.NoError(err)
		req.Empty(ids)
	})
}

func TestIndex_ReindexReplacesDocument(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	idx := newTestIndex(t)

	req.NoError(idx.IndexMessage(domain.Message{ID: "m1", Chat: "c1", Content: "first draft"}))
	req.NoError(idx.IndexMessage(domain.Message{ID: "m1", Chat: "c1", Content: "final version"}))

	ids, err := idx.SearchMessages(ctx, "c1", "draft")
	req.NoError(err)
	req.Empty(ids)

	ids, err = idx.SearchMessages(ctx, "c1", "final")
	req.NoError(err)
	req.Equal([]domain.MessageID{"m1"}, ids)
}

func TestIndex_SearchUsers(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	idx := newTestIndex(t)

	req.NoError(idx.IndexUser(domain.User{ID: "u1", Username: "alice", FullName: "Alice Anderson", Email: "alice@example.com"}))
	req.NoError(idx.IndexUser(domain.User{ID: "u2", Username: "bob", FullName: "Bob Brown", Email: "bob@example.com"}))

	t.Run("should match by username", func(t *testing.T) {
		ids, err := idx.SearchUsers(ctx, "alice")
		req.NoError(err)
		req.Contains(ids, domain.UserID("u1"))
		req.NotContains(ids, domain.UserID("u2"))
	})

	t.Run("should match by full name", func(t *testing.T) {
		ids, err := idx.SearchUsers(ctx, "brown")
		req.NoError(err)
		req.Equal([]domain.UserID{"u2"}, ids)
	})

	t.Run("should match an exact email", func(t *testing.T) {
		ids, err := idx.SearchUsers(ctx, "alice@example.com")
		req.NoError(err)
		req.Contains(ids, domain.UserID("u1"))
	})
}
