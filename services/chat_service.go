package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"zchat/domain"
	"zchat/errors"
	"zchat/repositories"
)

type IChatService interface {
	CreatePrivateChat(ctx context.Context, a, b domain.UserID) (domain.Chat, error)
	CreateGroupChat(ctx context.Context, creator domain.UserID, name string, members []domain.UserID) (domain.Chat, error)
	GetChat(ctx context.Context, id domain.ChatID, requester domain.UserID) (domain.Chat, error)
	ListChats(ctx context.Context, user domain.UserID) ([]domain.Chat, error)
	SearchChats(ctx context.Context, user domain.UserID, query string) ([]domain.Chat, error)
	UpdateName(ctx context.Context, id domain.ChatID, actor domain.UserID, name string) (domain.Chat, error)
	UpdateAvatar(ctx context.Context, id domain.ChatID, actor domain.UserID, avatar string) (domain.Chat, error)
	UpdateSettings(ctx context.Context, id domain.ChatID, actor domain.UserID, settings map[string]string) (domain.Chat, error)
	AddMember(ctx context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error)
	RemoveMember(ctx context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error)
	AddAdmin(ctx context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error)
	RemoveAdmin(ctx context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error)
	DeactivateChat(ctx context.Context, id domain.ChatID, actor domain.UserID) (domain.Chat, error)
	ResetUnread(ctx context.Context, id domain.ChatID, user domain.UserID) (domain.Chat, error)
}

type ChatService struct {
	chats repositories.IChatRepository
	users repositories.IUserRepository
	log   *slog.Logger
}

func NewChatService(log *slog.Logger, chats repositories.IChatRepository, users repositories.IUserRepository) *ChatService {
	return &ChatService{chats: chats, users: users, log: log}
}

// CreatePrivateChat is idempotent by membership pair: the same two users
// always get the same chat back, regardless of argument order.
func (s *ChatService) CreatePrivateChat(_ context.Context, a, b domain.UserID) (domain.Chat, error) {
	if a == b {
		return domain.Chat{}, errors.ErrSelfChat
	}

	userA, err := s.users.GetUser(a)
	if err != nil {
		return domain.Chat{}, err
	}
	userB, err := s.users.GetUser(b)
	if err != nil {
		return domain.Chat{}, err
	}

	now := time.Now().UTC()
	chat := domain.Chat{
		ID:          domain.NewChatID(),
		Name:        fmt.Sprintf("%s & %s", userA.Username, userB.Username),
		IsGroup:     false,
		Members:     domain.NewUserSet(a, b),
		Admins:      domain.NewUserSet(),
		UnreadCount: make(map[domain.UserID]int),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, created, err := s.chats.EnsurePrivateChat(chat)
	if err != nil {
		return domain.Chat{}, err
	}
	if !created {
		s.log.Debug(fmt.Sprintf("Private chat between %s and %s already exists", a, b))
	}
	return existing, nil
}

func (s *ChatService) CreateGroupChat(_ context.Context, creator domain.UserID, name string, members []domain.UserID) (domain.Chat, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Chat{}, fmt.Errorf("%w: group name is required", errors.ErrValidation)
	}

	now := time.Now().UTC()
	chat := domain.Chat{
		ID:          domain.NewChatID(),
		Name:        name,
		IsGroup:     true,
		Members:     domain.NewUserSet(append(members, creator)...),
		Admins:      domain.NewUserSet(creator),
		UnreadCount: make(map[domain.UserID]int),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.chats.CreateChat(chat); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func (s *ChatService) GetChat(_ context.Context, id domain.ChatID, requester domain.UserID) (domain.Chat, error) {
	chat, err := s.chats.GetChat(id)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.HasMember(requester) {
		return domain.Chat{}, errors.ErrNotAMember
	}
	return chat, nil
}

// ListChats returns the user's active chats, most recently touched first.
func (s *ChatService) ListChats(_ context.Context, user domain.UserID) ([]domain.Chat, error) {
	chats, err := s.chats.ListChatsForUser(user)
	if err != nil {
		return nil, err
	}
	active := chats[:0]
	for _, c := range chats {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].UpdatedAt.After(active[j].UpdatedAt)
	})
	return active, nil
}

func (s *ChatService) SearchChats(ctx context.Context, user domain.UserID, query string) ([]domain.Chat, error) {
	chats, err := s.ListChats(ctx, user)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	var matched []domain.Chat
	for _, c := range chats {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (s *ChatService) UpdateName(_ context.Context, id domain.ChatID, actor domain.UserID, name string) (domain.Chat, error) {
	return s.memberPatch(id, actor, func(c *domain.Chat) error {
		c.Name = name
		return nil
	})
}

func (s *ChatService) UpdateAvatar(_ context.Context, id domain.ChatID, actor domain.UserID, avatar string) (domain.Chat, error) {
	return s.memberPatch(id, actor, func(c *domain.Chat) error {
		c.Avatar = avatar
		return nil
	})
}

func (s *ChatService) UpdateSettings(_ context.Context, id domain.ChatID, actor domain.UserID, settings map[string]string) (domain.Chat, error) {
	return s.memberPatch(id, actor, func(c *domain.Chat) error {
		c.Settings = settings
		return nil
	})
}

// AddMember adds a user to a group. Member/admin mutations on a private
// chat are invalid: the membership pair is the chat's identity.
func (s *ChatService) AddMember(_ context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error) {
	return s.groupPatch(id, actor, func(c *domain.Chat) error {
		c.Members.Add(user)
		return nil
	})
}

// RemoveMember also drops any admin role the user held. Leaving a group is
// always allowed; removing somebody else takes the admin role.
func (s *ChatService) RemoveMember(_ context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error) {
	return s.chats.UpdateChat(id, func(c *domain.Chat) error {
		if !c.IsGroup {
			return errors.ErrInvalidChatKind
		}
		if actor != user && !c.HasAdmin(actor) {
			return errors.ErrNotAnAdmin
		}
		c.Members.Remove(user)
		c.Admins.Remove(user)
		delete(c.UnreadCount, user)
		return nil
	})
}

func (s *ChatService) AddAdmin(_ context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error) {
	return s.groupPatch(id, actor, func(c *domain.Chat) error {
		if !c.Members.Has(user) {
			return errors.ErrNotAMember
		}
		c.Admins.Add(user)
		return nil
	})
}

func (s *ChatService) RemoveAdmin(_ context.Context, id domain.ChatID, actor, user domain.UserID) (domain.Chat, error) {
	return s.groupPatch(id, actor, func(c *domain.Chat) error {
		c.Admins.Remove(user)
		return nil
	})
}

// DeactivateChat soft-deletes: the chat disappears from listings but its
// history stays readable through direct message lookups. Either member may
// close a private chat; groups require an admin.
func (s *ChatService) DeactivateChat(_ context.Context, id domain.ChatID, actor domain.UserID) (domain.Chat, error) {
	return s.chats.UpdateChat(id, func(c *domain.Chat) error {
		if !c.Members.Has(actor) {
			return errors.ErrNotAMember
		}
		if c.IsGroup && !c.HasAdmin(actor) {
			return errors.ErrNotAnAdmin
		}
		c.IsActive = false
		return nil
	})
}

// ResetUnread zeroes one member's counter and nobody else's.
func (s *ChatService) ResetUnread(_ context.Context, id domain.ChatID, user domain.UserID) (domain.Chat, error) {
	return s.chats.UpdateChat(id, func(c *domain.Chat) error {
		if !c.Members.Has(user) {
			return errors.ErrNotAMember
		}
		if c.UnreadCount == nil {
			c.UnreadCount = make(map[domain.UserID]int)
		}
		c.UnreadCount[user] = 0
		return nil
	})
}

func (s *ChatService) memberPatch(id domain.ChatID, actor domain.UserID, patch func(*domain.Chat) error) (domain.Chat, error) {
	return s.chats.UpdateChat(id, func(c *domain.Chat) error {
		if !c.Members.Has(actor) {
			return errors.ErrNotAMember
		}
		return patch(c)
	})
}

func (s *ChatService) groupPatch(id domain.ChatID, actor domain.UserID, patch func(*domain.Chat) error) (domain.Chat, error) {
	return s.chats.UpdateChat(id, func(c *domain.Chat) error {
		if !c.IsGroup {
			return errors.ErrInvalidChatKind
		}
		if !c.HasAdmin(actor) {
			return errors.ErrNotAnAdmin
		}
		return patch(c)
	})
}
