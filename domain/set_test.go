package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserSet(t *testing.T) {
	t.Run("should keep one entry per id", func(t *testing.T) {
		req := require.New(t)
		s := NewUserSet()

		s.Add("alice")
		s.Add("alice")

		req.Equal(1, s.Len())
		req.True(s.Has("alice"))
	})

	t.Run("should ignore removal of absent ids", func(t *testing.T) {
		req := require.New(t)
		s := NewUserSet("alice")

		s.Remove("ghost")
		s.Remove("alice")
		s.Remove("alice")

		req.Equal(0, s.Len())
	})

	t.Run("should return members in stable order", func(t *testing.T) {
		req := require.New(t)
		s := NewUserSet("carol", "alice", "bob")

		req.Equal([]UserID{"alice", "bob", "carol"}, s.Values())
	})

	t.Run("should clone without sharing storage", func(t *testing.T) {
		req := require.New(t)
		s := NewUserSet("alice")

		c := s.Clone()
		c.Add("bob")

		req.False(s.Has("bob"))
		req.True(c.Has("alice"))
	})

	t.Run("should serialize as a sorted array", func(t *testing.T) {
		req := require.New(t)
		s := NewUserSet("bob", "alice")

		data, err := json.Marshal(s)
		req.NoError(err)
		req.JSONEq(`["alice","bob"]`, string(data))

		var decoded UserSet
		req.NoError(json.Unmarshal(data, &decoded))
		req.True(decoded.Has("alice"))
		req.True(decoded.Has("bob"))
	})
}

func TestPairKey(t *testing.T) {
	req := require.New(t)

	req.Equal(PairKey("alice", "bob"), PairKey("bob", "alice"))
	req.Equal("alice|bob", PairKey("bob", "alice"))
	req.NotEqual(PairKey("alice", "bob"), PairKey("alice", "carol"))
}

func TestMessageReactions(t *testing.T) {
	t.Run("should keep a single entry for repeated reactions", func(t *testing.T) {
		req := require.New(t)
		var m Message

		m.AddReaction("alice", "like")
		m.AddReaction("alice", "like")
		m.AddReaction("bob", "like")

		req.Equal(2, m.Reactions["like"].Len())
	})

	t.Run("should prune a label once its last reaction is gone", func(t *testing.T) {
		req := require.New(t)
		var m Message

		m.AddReaction("alice", "like")
		m.RemoveReaction("alice", "like")

		req.NotContains(m.Reactions, "like")
	})

	t.Run("should ignore removing a reaction that was never given", func(t *testing.T) {
		req := require.New(t)
		var m Message

		m.RemoveReaction("alice", "like")
		req.Empty(m.Reactions)
	})
}
