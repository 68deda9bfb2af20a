package models

import "time"

// PostVote tracks a single user's vote on a post. At most one row exists per
// (user, post) pair; absence of a row means "no vote". Value is 1 (up) or
// -1 (down); "has voted" must always be decided by row existence, never by
// the stored value.
type PostVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_post_votes_user_post" json:"user_id"`
	PostID    int       `gorm:"not null;uniqueIndex:idx_post_votes_user_post" json:"post_id"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentVote is the comment-side twin of PostVote.
type CommentVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_comment_votes_user_comment" json:"user_id"`
	CommentID int       `gorm:"not null;uniqueIndex:idx_comment_votes_user_comment" json:"comment_id"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Vote string `json:"vote"` // "up" or "down"
}
