package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"zchat/auth"
	"zchat/domain"
	"zchat/errors"
	"zchat/repositories"
)

// ImageStore persists uploaded blobs and returns the URL path to store on
// the profile.
type ImageStore interface {
	SaveImage(kind string, data []byte) (string, error)
}

// ProfilePatch carries the optional profile fields. Nil pointers leave the
// current value alone.
type ProfilePatch struct {
	FullName    *string
	Bio         *string
	Gender      *string
	DateOfBirth *time.Time
	Privacy     *string
	Notify      *bool
}

type IUserService interface {
	Profile(ctx context.Context, id domain.UserID) (domain.User, error)
	UpdateProfile(ctx context.Context, id domain.UserID, patch ProfilePatch) (domain.User, error)
	UploadAvatar(ctx context.Context, id domain.UserID, data []byte) (domain.User, error)
	UploadCover(ctx context.Context, id domain.UserID, data []byte) (domain.User, error)
	Search(ctx context.Context, query string) ([]domain.PublicUser, error)
}

type UserService struct {
	users  repositories.IUserRepository
	index  UserIndex
	images ImageStore
	log    *slog.Logger
}

func NewUserService(log *slog.Logger, users repositories.IUserRepository, index UserIndex, images ImageStore) *UserService {
	return &UserService{users: users, index: index, images: images, log: log}
}

func (s *UserService) Profile(_ context.Context, id domain.UserID) (domain.User, error) {
	return s.users.GetUser(id)
}

func (s *UserService) UpdateProfile(_ context.Context, id domain.UserID, patch ProfilePatch) (domain.User, error) {
	req := auth.ProfileUpdateRequest{
		FullName: lo.FromPtr(patch.FullName),
		Bio:      lo.FromPtr(patch.Bio),
		Gender:   lo.FromPtr(patch.Gender),
		Privacy:  lo.FromPtr(patch.Privacy),
	}
	if err := auth.ValidateProfileUpdate(req); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	user, err := s.users.UpdateUser(id, func(u *domain.User) error {
		if patch.FullName != nil {
			u.FullName = *patch.FullName
		}
		if patch.Bio != nil {
			u.Bio = *patch.Bio
		}
		if patch.Gender != nil {
			u.Gender = domain.Gender(*patch.Gender)
		}
		if patch.DateOfBirth != nil {
			u.DateOfBirth = patch.DateOfBirth
		}
		if patch.Privacy != nil {
			u.Settings.Privacy = domain.Privacy(*patch.Privacy)
		}
		if patch.Notify != nil {
			u.Settings.Notifications = *patch.Notify
		}
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if err := s.index.IndexUser(user); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to reindex user %s: %v", user.ID, err))
	}
	return user, nil
}

func (s *UserService) UploadAvatar(ctx context.Context, id domain.UserID, data []byte) (domain.User, error) {
	return s.uploadImage(ctx, id, "avatars", data, func(u *domain.User, url string) {
		u.Avatar = url
	})
}

func (s *UserService) UploadCover(ctx context.Context, id domain.UserID, data []byte) (domain.User, error) {
	return s.uploadImage(ctx, id, "covers", data, func(u *domain.User, url string) {
		u.CoverPhoto = url
	})
}

func (s *UserService) uploadImage(_ context.Context, id domain.UserID, kind string, data []byte,
	set func(*domain.User, string)) (domain.User, error) {
	url, err := s.images.SaveImage(kind, data)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.UpdateUser(id, func(u *domain.User) error {
		set(u, url)
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// Search resolves index hits against the store and returns public profiles
// only. Hits for since-deleted users are dropped.
func (s *UserService) Search(ctx context.Context, query string) ([]domain.PublicUser, error) {
	ids, err := s.index.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	var users []domain.User
	for _, id := range ids {
		u, err := s.users.GetUser(id)
		if err != nil {
			continue
		}
		if u.IsActive {
			users = append(users, u)
		}
	}
	return lo.Map(users, func(u domain.User, _ int) domain.PublicUser {
		return u.Public()
	}), nil
}
