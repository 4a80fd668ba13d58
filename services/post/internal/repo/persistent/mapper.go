package persistent

import (
	"warble/services/post/internal/entity"
	"warble/services/post/internal/model"
)

func ToPostEntity(m *model.PostModel) *entity.Post {
	if m == nil {
		return nil
	}

	return &entity.Post{
		ID:         m.ID,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		Text:       m.Text,
		MediaURL:   m.MediaURL,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func ToPostModel(e *entity.Post) *model.PostModel {
	if e == nil {
		return nil
	}

	return &model.PostModel{
		ID:         e.ID,
		AuthorID:   e.AuthorID,
		AuthorName: e.AuthorName,
		Text:       e.Text,
		MediaURL:   e.MediaURL,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
