package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"warble/pkg/logger"
	"warble/pkg/queue"
	"warble/services/post/internal/entity"
	"warble/services/post/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

// BlobStore is the media store adapter. Uploads overwrite at their key and
// deletes are idempotent, which is what the replacement and rollback
// sequences below rely on.
type BlobStore interface {
	UploadFile(key string, r io.Reader, contentType string) (string, error)
	DeleteFile(key string) error
}

// ReconcileQueue receives orphaned blob paths for out-of-band cleanup.
type ReconcileQueue interface {
	PublishOrphanBlob(task queue.OrphanBlobTask) error
}

type PostUseCase interface {
	CreatePost(authorID, authorName, text string, media []*MediaFile) (*entity.Post, error)
	GetPost(postID string) (*entity.Post, error)
	ListPosts(limit int) ([]*entity.Post, error)
	GetAuthorPosts(authorID string, limit int) ([]*entity.Post, error)
	UpdatePost(postID, actorID, newText string, media []*MediaFile, removeMedia bool) (*entity.Post, error)
	DeletePost(postID, actorID string) error
}

type postUseCase struct {
	postRepo    persistent.PostRepository
	blobStore   BlobStore
	redisClient *redis.Client
	reconcile   ReconcileQueue
	logger      *logger.Logger
}

func NewPostUseCase(
	postRepo persistent.PostRepository,
	blobStore BlobStore,
	redisClient *redis.Client,
	reconcile ReconcileQueue,
	logger *logger.Logger,
) PostUseCase {
	return &postUseCase{
		postRepo:    postRepo,
		blobStore:   blobStore,
		redisClient: redisClient,
		reconcile:   reconcile,
		logger:      logger,
	}
}

// CreatePost writes the metadata record first so the blob key, which is
// derived from the record id, is stable before any byte hits the blob store.
// An upload failure therefore leaves a text-only post and no orphan.
func (uc *postUseCase) CreatePost(authorID, authorName, text string, media []*MediaFile) (*entity.Post, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	file, err := ValidateMedia(media)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       text,
	}
	if err := uc.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}

	if file != nil {
		key := entity.MediaPath(authorID, post.ID)

		url, err := uc.blobStore.UploadFile(key, file.Reader, file.ContentType)
		if err != nil {
			uc.logger.Error("Media upload failed for post %s: %v", post.ID, err)
			uc.cachePost(post)
			return post, &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: err}
		}

		if err := uc.postRepo.UpdateFields(post.ID, map[string]interface{}{"media_url": url}); err != nil {
			// The record does not reference the blob yet; remove it so the
			// failed step is the last observable one.
			if delErr := uc.blobStore.DeleteFile(key); delErr != nil {
				uc.reportOrphan(post.ID, authorID, key)
				uc.cachePost(post)
				return post, &entity.PartialFailure{Reason: entity.OrphanBlob, Err: err}
			}
			uc.cachePost(post)
			return post, &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: err}
		}
		post.MediaURL = url
	}

	uc.cachePost(post)
	return post, nil
}

func (uc *postUseCase) GetPost(postID string) (*entity.Post, error) {
	if cached := uc.cachedPost(postID); cached != nil {
		return cached, nil
	}

	post, err := uc.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}

	uc.cachePost(post)
	return post, nil
}

func (uc *postUseCase) ListPosts(limit int) ([]*entity.Post, error) {
	return uc.postRepo.ListRecent(limit)
}

func (uc *postUseCase) GetAuthorPosts(authorID string, limit int) ([]*entity.Post, error) {
	return uc.postRepo.ListByAuthor(authorID, limit)
}

// UpdatePost rewrites the text and optionally replaces or removes the
// attachment. Old and new blobs share the canonical key, so delete-then-
// upload acts as an atomic replace; media_url is only written after the blob
// operation it reflects has succeeded, so it never points at a deleted path.
func (uc *postUseCase) UpdatePost(postID, actorID, newText string, media []*MediaFile, removeMedia bool) (*entity.Post, error) {
	post, err := uc.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, entity.ErrNotOwner
	}
	if err := ValidateText(newText); err != nil {
		return nil, err
	}
	file, err := ValidateMedia(media)
	if err != nil {
		return nil, err
	}

	if err := uc.postRepo.UpdateFields(postID, map[string]interface{}{"text": newText}); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	post.Text = newText

	key := entity.MediaPath(post.AuthorID, post.ID)

	switch {
	case file != nil:
		hadMedia := post.MediaURL != ""
		if hadMedia {
			if err := uc.blobStore.DeleteFile(key); err != nil {
				// Old blob and reference are both intact.
				uc.uncachePost(postID)
				return post, &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: err}
			}
		}

		url, err := uc.blobStore.UploadFile(key, file.Reader, file.ContentType)
		if err != nil {
			if hadMedia {
				// The old blob is gone; clear the reference so the record
				// cannot dangle.
				if clearErr := uc.postRepo.UpdateFields(postID, map[string]interface{}{"media_url": ""}); clearErr == nil {
					post.MediaURL = ""
				} else {
					uc.logger.Error("Failed to clear media_url for post %s after upload failure: %v", postID, clearErr)
				}
			}
			uc.uncachePost(postID)
			return post, &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: err}
		}

		if err := uc.postRepo.UpdateFields(postID, map[string]interface{}{"media_url": url}); err != nil {
			if !hadMedia {
				// Freshly uploaded blob is unreferenced; roll it back.
				if delErr := uc.blobStore.DeleteFile(key); delErr != nil {
					uc.reportOrphan(post.ID, post.AuthorID, key)
					uc.uncachePost(postID)
					return post, &entity.PartialFailure{Reason: entity.OrphanBlob, Err: err}
				}
			}
			// With prior media the stale reference still resolves: the new
			// blob lives at the same key the old URL pointed to.
			uc.uncachePost(postID)
			return post, &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: err}
		}
		post.MediaURL = url

	case removeMedia && post.MediaURL != "":
		if err := uc.blobStore.DeleteFile(key); err != nil {
			uc.uncachePost(postID)
			return post, &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: err}
		}
		if err := uc.postRepo.UpdateFields(postID, map[string]interface{}{"media_url": ""}); err != nil {
			uc.uncachePost(postID)
			return post, &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: err}
		}
		post.MediaURL = ""
	}

	uc.cachePost(post)
	return post, nil
}

// DeletePost removes the metadata record before the blob: a failure between
// the two leaks a blob at a predictable path instead of leaving a live
// record whose media URL points at nothing.
func (uc *postUseCase) DeletePost(postID, actorID string) error {
	post, err := uc.postRepo.GetByID(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return entity.ErrNotOwner
	}

	if err := uc.postRepo.Delete(postID); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrStoreUnavailable, err)
	}
	uc.uncachePost(postID)

	if post.MediaURL != "" {
		key := entity.MediaPath(post.AuthorID, post.ID)
		if err := uc.blobStore.DeleteFile(key); err != nil {
			uc.reportOrphan(post.ID, post.AuthorID, key)
			return &entity.PartialFailure{Reason: entity.OrphanBlob, Err: err}
		}
	}

	return nil
}

func (uc *postUseCase) reportOrphan(postID, authorID, key string) {
	uc.logger.Warn("Orphaned blob at %s (post %s)", key, postID)
	if uc.reconcile == nil {
		return
	}
	task := queue.OrphanBlobTask{Path: key, PostID: postID, AuthorID: authorID}
	if err := uc.reconcile.PublishOrphanBlob(task); err != nil {
		uc.logger.Error("Failed to publish orphan blob task for %s: %v", key, err)
	}
}

const postCacheTTL = 24 * time.Hour

func postCacheKey(postID string) string {
	return fmt.Sprintf("post:%s", postID)
}

func (uc *postUseCase) cachePost(post *entity.Post) {
	if uc.redisClient == nil {
		return
	}
	data, err := json.Marshal(post)
	if err != nil {
		return
	}
	ctx := context.Background()
	if err := uc.redisClient.Set(ctx, postCacheKey(post.ID), data, postCacheTTL).Err(); err != nil {
		uc.logger.Warn("Failed to cache post %s: %v", post.ID, err)
	}
}

func (uc *postUseCase) cachedPost(postID string) *entity.Post {
	if uc.redisClient == nil {
		return nil
	}
	data, err := uc.redisClient.Get(context.Background(), postCacheKey(postID)).Bytes()
	if err != nil {
		return nil
	}
	var post entity.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil
	}
	return &post
}

func (uc *postUseCase) uncachePost(postID string) {
	if uc.redisClient == nil {
		return
	}
	if err := uc.redisClient.Del(context.Background(), postCacheKey(postID)).Err(); err != nil {
		uc.logger.Warn("Failed to evict post %s from cache: %v", postID, err)
	}
}
