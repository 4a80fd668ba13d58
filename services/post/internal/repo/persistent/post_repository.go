package persistent

import (
	"errors"
	"fmt"

	"warble/services/post/internal/entity"
	"warble/services/post/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostRepository is the metadata store adapter. Each operation is atomic at
// single-record granularity; no cross-record transactionality is assumed.
type PostRepository interface {
	Create(post *entity.Post) error
	GetByID(id string) (*entity.Post, error)
	ListRecent(limit int) ([]*entity.Post, error)
	ListByAuthor(authorID string, limit int) ([]*entity.Post, error)
	UpdateFields(id string, fields map[string]interface{}) error
	Delete(id string) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(post *entity.Post) error {
	postModel := ToPostModel(post)
	if postModel.ID == "" {
		postModel.ID = uuid.New().String()
	}

	if err := r.db.Create(postModel).Error; err != nil {
		return err
	}

	*post = *ToPostEntity(postModel)
	return nil
}

func (r *postRepository) GetByID(id string) (*entity.Post, error) {
	var postModel model.PostModel
	if err := r.db.Where("id = ?", id).First(&postModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", entity.ErrNotFound, id)
		}
		return nil, err
	}
	return ToPostEntity(&postModel), nil
}

func (r *postRepository) ListRecent(limit int) ([]*entity.Post, error) {
	var postModels []model.PostModel
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&postModels).Error; err != nil {
		return nil, err
	}
	return toPostEntities(postModels), nil
}

func (r *postRepository) ListByAuthor(authorID string, limit int) ([]*entity.Post, error) {
	var postModels []model.PostModel
	query := r.db.Where("author_id = ?", authorID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&postModels).Error; err != nil {
		return nil, err
	}
	return toPostEntities(postModels), nil
}

// UpdateFields applies a partial update: only the supplied columns change.
// A map is used so zero values (e.g. clearing media_url) are written.
func (r *postRepository) UpdateFields(id string, fields map[string]interface{}) error {
	result := r.db.Model(&model.PostModel{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}
	return nil
}

func (r *postRepository) Delete(id string) error {
	result := r.db.Delete(&model.PostModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}
	return nil
}

func toPostEntities(postModels []model.PostModel) []*entity.Post {
	posts := make([]*entity.Post, len(postModels))
	for i := range postModels {
		posts[i] = ToPostEntity(&postModels[i])
	}
	return posts
}
