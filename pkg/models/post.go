package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID   string    `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorName string    `gorm:"not null" json:"author_name"`
	Text       string    `gorm:"type:varchar(180);not null" json:"text"`
	MediaURL   string    `json:"media_url"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
