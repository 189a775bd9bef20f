package model

import "time"

// PostHashtag indexes a post under a normalized hashtag. Serves the relational
// fallback of the hashtag feed; the wide-partition store keeps its own copy.
type PostHashtag struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Hashtag   string    `gorm:"type:varchar(64);index:idx_hashtag_created;uniqueIndex:ux_hashtag_post;not null"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_hashtag_post"`
	AuthorID  string    `gorm:"type:varchar(36);not null"`
	CreatedAt time.Time `gorm:"index:idx_hashtag_created"`
}

func (PostHashtag) TableName() string { return "post_hashtags" }
