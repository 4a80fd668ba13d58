package model

import (
	"time"
)

type PostModel struct {
	ID         string    `gorm:"type:uuid;primary_key"`
	AuthorID   string    `gorm:"type:uuid;not null;index"`
	AuthorName string    `gorm:"not null"`
	Text       string    `gorm:"type:varchar(180);not null"`
	MediaURL   string
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (PostModel) TableName() string {
	return "posts"
}
