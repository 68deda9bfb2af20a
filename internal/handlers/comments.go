package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shutterboard/backend/internal/models"
	"github.com/shutterboard/backend/internal/votes"
)

type CommentHandler struct {
	db     *gorm.DB
	engine *votes.Engine
}

func NewCommentHandler(db *gorm.DB, engine *votes.Engine) *CommentHandler {
	return &CommentHandler{db: db, engine: engine}
}

// CreateComment inserts a comment and bumps the post's cached comment count,
// or seeds the analytics row with comments_count=1 if the post has none, in
// a single transaction. Returns the comment joined with its author.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comment := models.Comment{
		PostID: post.ID,
		UserID: userID,
		Text:   input.Text,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		var analytics models.PostAnalytics
		err := tx.Where("post_id = ?", post.ID).First(&analytics).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			analytics = models.PostAnalytics{PostID: post.ID, CommentsCount: 1}
			return tx.Create(&analytics).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&analytics).Update("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment successfully added",
		"comment": comment,
	})
}

// VoteComment applies an up/down vote intent to a comment and returns the
// refreshed counts
func (h *CommentHandler) VoteComment(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing comment ID"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote type"})
		return
	}

	value, err := votes.ParseIntent(input.Vote)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote type"})
		return
	}

	counts, err := h.engine.ApplyCommentVote(userID, commentID, value)
	if err != nil {
		if errors.Is(err, votes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Vote successfully updated",
		"votes":   counts,
	})
}

// DeleteComment removes a comment and its votes (author only), then resets
// the post's comments_count to a fresh count of the remaining comments. The
// recount makes deletion self-healing against any prior counter drift.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID := c.Param("commentId")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.UserID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorised access"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", comment.PostID).Count(&remaining).Error; err != nil {
			return err
		}
		return tx.Model(&models.PostAnalytics{}).
			Where("post_id = ?", comment.PostID).
			Update("comments_count", remaining).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment successfully deleted"})
}
