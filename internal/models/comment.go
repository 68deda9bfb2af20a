package models

import "time"

type Comment struct {
	ID     int    `gorm:"primaryKey" json:"id"`
	PostID int    `gorm:"not null;index" json:"post_id"`
	UserID int    `gorm:"not null;index" json:"user_id"`
	Text   string `gorm:"not null" json:"text"`

	// Cached from comment_votes aggregation; the vote table is authoritative.
	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
}

type CreateCommentRequest struct {
	Text string `json:"text"`
}
