package model

import "time"

// Post mirrors the primary content table owned by the posts domain. The feed
// pipeline only reads it through the relational fallback repository.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `gorm:"type:varchar(36);index:idx_post_author;index:idx_post_author_created"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_post_author_created"`
	UpdatedAt time.Time
}

func (Post) TableName() string { return "posts" }
