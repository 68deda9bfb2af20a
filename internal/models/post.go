package models

import "time"

type Post struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	UserID      int    `gorm:"not null;index" json:"user_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"desc"`
	Tags        string `gorm:"not null" json:"tags"` // free-text comma separated list
	ImagePath   string `json:"img_path"`             // public URL of the post image

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
}

type UpdatePostRequest struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
	Tags        string `json:"tags"`
}

type SearchPostsRequest struct {
	SearchTerm string   `json:"searchTerm"`
	SearchTags []string `json:"searchTags"`
}
