package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shutterboard/backend/internal/storage"
	"github.com/shutterboard/backend/internal/votes"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, store *storage.Store) *Handler {
	engine := votes.NewEngine(db)

	return &Handler{
		Auth:    NewAuthHandler(db),
		Post:    NewPostHandler(db, store, engine),
		Comment: NewCommentHandler(db, engine),
		User:    NewUserHandler(db, store),
	}
}

// extractUserID reads the authenticated user's ID set by the auth middleware.
func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
