package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zchat/domain"
	"zchat/errors"
	"zchat/repositories"
)

// MessageIndex is the slice of the search index the message service needs.
type MessageIndex interface {
	IndexMessage(msg domain.Message) error
	SearchMessages(ctx context.Context, chat domain.ChatID, query string) ([]domain.MessageID, error)
}

// SendMessageCommand carries everything a new message needs. Type defaults
// to text when empty.
type SendMessageCommand struct {
	Chat        domain.ChatID
	Sender      domain.UserID
	Content     string
	Type        domain.MessageType
	Attachments []domain.Attachment
	ReplyTo     *domain.MessageID
	Mentions    []domain.UserID
}

type IMessageService interface {
	Send(ctx context.Context, cmd SendMessageCommand) (domain.Message, error)
	Get(ctx context.Context, id domain.MessageID, requester domain.UserID) (domain.Message, error)
	List(ctx context.Context, chat domain.ChatID, page, limit int) ([]domain.Message, error)
	Edit(ctx context.Context, id domain.MessageID, editor domain.UserID, content string) (domain.Message, error)
	DeleteForUser(ctx context.Context, id domain.MessageID, user domain.UserID) (domain.Message, error)
	React(ctx context.Context, id domain.MessageID, user domain.UserID, label string) (domain.Message, error)
	Unreact(ctx context.Context, id domain.MessageID, user domain.UserID, label string) (domain.Message, error)
	MarkRead(ctx context.Context, id domain.MessageID, user domain.UserID) (domain.Message, error)
	Forward(ctx context.Context, id domain.MessageID, sender domain.UserID, target domain.ChatID) (domain.Message, error)
	Search(ctx context.Context, chat domain.ChatID, query string) ([]domain.Message, error)
	Unread(ctx context.Context, chat domain.ChatID, user domain.UserID) ([]domain.Message, error)
	ByType(ctx context.Context, chat domain.ChatID, t domain.MessageType) ([]domain.Message, error)
}

type MessageService struct {
	messages repositories.IMessageRepository
	chats    repositories.IChatRepository
	index    MessageIndex
	log      *slog.Logger
}

func NewMessageService(log *slog.Logger, messages repositories.IMessageRepository,
	chats repositories.IChatRepository, index MessageIndex) *MessageService {
	return &MessageService{messages: messages, chats: chats, index: index, log: log}
}

// Send appends the message, points the chat's lastMessage at it, and bumps
// the unread counter of every member except the sender. The counter bumps
// and the lastMessage update share one storage transaction, so concurrent
// senders cannot lose increments.
func (s *MessageService) Send(_ context.Context, cmd SendMessageCommand) (domain.Message, error) {
	chat, err := s.chats.GetChat(cmd.Chat)
	if err != nil {
		return domain.Message{}, err
	}
	if !chat.IsActive {
		return domain.Message{}, errors.ErrChatInactive
	}
	if !chat.HasMember(cmd.Sender) {
		return domain.Message{}, errors.ErrNotAMember
	}
	if cmd.Content == "" && len(cmd.Attachments) == 0 {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	if cmd.Type == "" {
		cmd.Type = domain.MessageText
	}

	now := time.Now().UTC()
	msg := domain.Message{
		ID:          domain.NewMessageID(),
		Chat:        cmd.Chat,
		Sender:      cmd.Sender,
		Content:     cmd.Content,
		Type:        cmd.Type,
		Attachments: cmd.Attachments,
		ReplyTo:     cmd.ReplyTo,
		Mentions:    cmd.Mentions,
		ReadBy:      domain.NewUserSet(),
		DeletedBy:   domain.NewUserSet(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.append(msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// append writes the message, indexes it, and updates the chat document:
// lastMessage plus one unread increment per non-sender member, all inside
// one chat transaction.
func (s *MessageService) append(msg domain.Message) error {
	if err := s.messages.CreateMessage(msg); err != nil {
		return err
	}
	s.indexMessage(msg)

	_, err := s.chats.UpdateChat(msg.Chat, func(c *domain.Chat) error {
		c.LastMessage = &msg.ID
		if c.UnreadCount == nil {
			c.UnreadCount = make(map[domain.UserID]int)
		}
		for _, member := range c.Members.Values() {
			if member != msg.Sender {
				c.UnreadCount[member]++
			}
		}
		return nil
	})
	return err
}

// requireMember loads the message and checks the actor belongs to its chat.
// Holding a message id is not an authorization to touch it.
func (s *MessageService) requireMember(id domain.MessageID, user domain.UserID) (domain.Message, error) {
	msg, err := s.messages.GetMessage(id)
	if err != nil {
		return domain.Message{}, err
	}
	chat, err := s.chats.GetChat(msg.Chat)
	if err != nil {
		return domain.Message{}, err
	}
	if !chat.HasMember(user) {
		return domain.Message{}, errors.ErrNotAMember
	}
	return msg, nil
}

func (s *MessageService) Get(_ context.Context, id domain.MessageID, requester domain.UserID) (domain.Message, error) {
	msg, err := s.requireMember(id, requester)
	if err != nil {
		return domain.Message{}, err
	}
	if !msg.VisibleTo(requester) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	return msg, nil
}

func (s *MessageService) List(_ context.Context, chat domain.ChatID, page, limit int) ([]domain.Message, error) {
	return s.messages.ListMessages(chat, page, limit)
}

func (s *MessageService) Edit(_ context.Context, id domain.MessageID, editor domain.UserID, content string) (domain.Message, error) {
	if _, err := s.requireMember(id, editor); err != nil {
		return domain.Message{}, err
	}
	msg, err := s.messages.UpdateMessage(id, func(m *domain.Message) error {
		if m.Sender != editor {
			return errors.ErrNotTheSender
		}
		m.Content = content
		m.IsEdited = true
		m.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.indexMessage(msg)
	return msg, nil
}

// DeleteForUser hides the message for one user only; everyone else keeps
// seeing it.
func (s *MessageService) DeleteForUser(_ context.Context, id domain.MessageID, user domain.UserID) (domain.Message, error) {
	if _, err := s.requireMember(id, user); err != nil {
		return domain.Message{}, err
	}
	return s.messages.UpdateMessage(id, func(m *domain.Message) error {
		m.DeletedBy.Add(user)
		return nil
	})
}

func (s *MessageService) React(_ context.Context, id domain.MessageID, user domain.UserID, label string) (domain.Message, error) {
	if label == "" {
		return domain.Message{}, fmt.Errorf("%w: empty reaction", errors.ErrValidation)
	}
	if _, err := s.requireMember(id, user); err != nil {
		return domain.Message{}, err
	}
	return s.messages.UpdateMessage(id, func(m *domain.Message) error {
		m.AddReaction(user, label)
		return nil
	})
}

func (s *MessageService) Unreact(_ context.Context, id domain.MessageID, user domain.UserID, label string) (domain.Message, error) {
	if _, err := s.requireMember(id, user); err != nil {
		return domain.Message{}, err
	}
	return s.messages.UpdateMessage(id, func(m *domain.Message) error {
		m.RemoveReaction(user, label)
		return nil
	})
}

func (s *MessageService) MarkRead(_ context.Context, id domain.MessageID, user domain.UserID) (domain.Message, error) {
	if _, err := s.requireMember(id, user); err != nil {
		return domain.Message{}, err
	}
	return s.messages.UpdateMessage(id, func(m *domain.Message) error {
		m.ReadBy.Add(user)
		return nil
	})
}

// Forward copies content, type, and attachments into a brand-new message in
// the target chat, marked as forwarded from the origin chat. Reactions,
// read receipts, and edit history of the original do not travel with it.
// The sender must belong to both chats.
func (s *MessageService) Forward(_ context.Context, id domain.MessageID, sender domain.UserID, target domain.ChatID) (domain.Message, error) {
	original, err := s.requireMember(id, sender)
	if err != nil {
		return domain.Message{}, err
	}

	chat, err := s.chats.GetChat(target)
	if err != nil {
		return domain.Message{}, err
	}
	if !chat.IsActive {
		return domain.Message{}, errors.ErrChatInactive
	}
	if !chat.HasMember(sender) {
		return domain.Message{}, errors.ErrNotAMember
	}

	origin := original.Chat
	now := time.Now().UTC()
	msg := domain.Message{
		ID:            domain.NewMessageID(),
		Chat:          target,
		Sender:        sender,
		Content:       original.Content,
		Type:          original.Type,
		Attachments:   original.Attachments,
		ReadBy:        domain.NewUserSet(),
		DeletedBy:     domain.NewUserSet(),
		IsForwarded:   true,
		ForwardedFrom: &origin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.append(msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (s *MessageService) Search(ctx context.Context, chat domain.ChatID, query string) ([]domain.Message, error) {
	ids, err := s.index.SearchMessages(ctx, chat, query)
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	for _, id := range ids {
		msg, err := s.messages.GetMessage(id)
		if err != nil {
			// The index can briefly trail the store; skip stale hits.
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *MessageService) Unread(_ context.Context, chat domain.ChatID, user domain.UserID) ([]domain.Message, error) {
	return s.messages.ListUnread(chat, user)
}

func (s *MessageService) ByType(_ context.Context, chat domain.ChatID, t domain.MessageType) ([]domain.Message, error) {
	return s.messages.ListByType(chat, t)
}

func (s *MessageService) indexMessage(msg domain.Message) {
	if err := s.index.IndexMessage(msg); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to index message %s: %v", msg.ID, err))
	}
}
