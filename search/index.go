// Package search maintains the full-text index behind message and user
// search. The index is derivative state: the directory store stays the
// source of truth and searches only resolve ids.
package search

import (
	"context"
	"strings"

	"github.com/blugelabs/bluge"

	"zchat/domain"
)

const maxHits = 50

type Index struct {
	writer *bluge.Writer
}

// Open creates or reopens an on-disk index at path.
func Open(path string) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer}, nil
}

// OpenInMemory backs the index with memory only. Used by tests.
func OpenInMemory() (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// IndexMessage adds or replaces a message document. Content and attachment
// names are searchable; the chat id scopes queries to one conversation.
func (i *Index) IndexMessage(msg domain.Message) error {
	var names []string
	for _, a := range msg.Attachments {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	doc := bluge.NewDocument("message:" + msg.ID.String()).
		AddField(bluge.NewKeywordField("kind", "message")).
		AddField(bluge.NewKeywordField("chat", msg.Chat.String())).
		AddField(bluge.NewTextField("content", msg.Content)).
		AddField(bluge.NewTextField("attachments", strings.Join(names, " "))).
		AddField(bluge.NewStoredOnlyField("message_id", []byte(msg.ID)))
	return i.writer.Update(doc.ID(), doc)
}

// IndexUser adds or replaces a user profile document.
func (i *Index) IndexUser(user domain.User) error {
	doc := bluge.NewDocument("user:" + user.ID.String()).
		AddField(bluge.NewKeywordField("kind", "user")).
		AddField(bluge.NewTextField("username", user.Username)).
		AddField(bluge.NewTextField("fullName", user.FullName)).
		AddField(bluge.NewKeywordField("email", user.Email)).
		AddField(bluge.NewStoredOnlyField("user_id", []byte(user.ID)))
	return i.writer.Update(doc.ID(), doc)
}

// SearchMessages resolves message ids in one chat whose content or
// attachment names match the query.
func (i *Index) SearchMessages(ctx context.Context, chat domain.ChatID, query string) ([]domain.MessageID, error) {
	text := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(query).SetField("content")).
		AddShould(bluge.NewMatchQuery(query).SetField("attachments")).
		SetMinShould(1)
	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery("message").SetField("kind")).
		AddMust(bluge.NewTermQuery(chat.String()).SetField("chat")).
		AddMust(text)

	ids, err := i.search(ctx, q, "message_id")
	if err != nil {
		return nil, err
	}
	out := make([]domain.MessageID, len(ids))
	for n, id := range ids {
		out[n] = domain.MessageID(id)
	}
	return out, nil
}

// SearchUsers resolves user ids whose username, full name, or exact email
// match the query.
func (i *Index) SearchUsers(ctx context.Context, query string) ([]domain.UserID, error) {
	text := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(query).SetField("username")).
		AddShould(bluge.NewMatchQuery(query).SetField("fullName")).
		AddShould(bluge.NewTermQuery(strings.ToLower(query)).SetField("email")).
		SetMinShould(1)
	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery("user").SetField("kind")).
		AddMust(text)

	ids, err := i.search(ctx, q, "user_id")
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserID, len(ids))
	for n, id := range ids {
		out[n] = domain.UserID(id)
	}
	return out, nil
}

func (i *Index) search(ctx context.Context, q bluge.Query, idField string) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(maxHits, q))
	if err != nil {
		return nil, err
	}

	var ids []string
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
