package models

// PostAnalytics caches aggregate counters for a post (1:1). The post_votes
// and comments tables stay authoritative; these columns are refreshed from
// aggregate queries inside the same transaction that mutates them.
type PostAnalytics struct {
	ID            int `gorm:"primaryKey" json:"id"`
	PostID        int `gorm:"not null;uniqueIndex" json:"post_id"`
	Upvotes       int `gorm:"default:0" json:"upvotes"`
	Downvotes     int `gorm:"default:0" json:"downvotes"`
	CommentsCount int `gorm:"default:0" json:"comments_count"`
}
