package usecase

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"warble/pkg/logger"
	"warble/services/profile/internal/entity"
	"warble/services/profile/internal/repo/persistent"
)

// MaxAvatarBytes matches the attachment limit on posts.
const MaxAvatarBytes = 1 << 20

// BlobStore is the subset of the S3 client the profile service needs.
type BlobStore interface {
	UploadFile(key string, reader io.Reader, contentType string) (string, error)
}

type ProfileUseCase interface {
	GetProfile(userID string) (*entity.User, error)
	UpdateUsername(userID, username string) (*entity.User, error)
	UploadAvatar(userID string, reader io.Reader, size int64, contentType string) (*entity.User, error)
}

type profileUseCase struct {
	userRepo  persistent.UserRepository
	blobStore BlobStore
	logger    *logger.Logger
}

func NewProfileUseCase(userRepo persistent.UserRepository, blobStore BlobStore, logger *logger.Logger) ProfileUseCase {
	return &profileUseCase{
		userRepo:  userRepo,
		blobStore: blobStore,
		logger:    logger,
	}
}

func (uc *profileUseCase) GetProfile(userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(userID)
}

func (uc *profileUseCase) UpdateUsername(userID, username string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, entity.ErrUsernameEmpty
	}

	if existing, err := uc.userRepo.GetByUsername(username); err == nil && existing.ID != userID {
		return nil, entity.ErrUsernameTaken
	}

	user, err := uc.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if err := uc.userRepo.UpdateFields(userID, map[string]interface{}{"username": username}); err != nil {
		uc.logger.Error("Failed to update username for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to update username: %w", err)
	}

	user.Username = username
	return user, nil
}

// UploadAvatar writes the new blob before touching the record, so avatar_url
// only ever points at bytes that exist. The key is stable per user, which
// makes the upload an in-place replace.
func (uc *profileUseCase) UploadAvatar(userID string, reader io.Reader, size int64, contentType string) (*entity.User, error) {
	if size >= MaxAvatarBytes {
		return nil, entity.ErrAvatarTooLarge
	}

	user, err := uc.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	key := entity.AvatarPath(userID)
	avatarURL, err := uc.blobStore.UploadFile(key, reader, contentType)
	if err != nil {
		uc.logger.Error("Failed to upload avatar for user %s: %v", userID, err)
		return nil, errors.New("failed to upload avatar")
	}

	if err := uc.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": avatarURL}); err != nil {
		uc.logger.Error("Failed to save avatar URL for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	user.AvatarURL = avatarURL
	return user, nil
}
