package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shutterboard/backend/internal/models"
	"github.com/shutterboard/backend/internal/storage"
	"github.com/shutterboard/backend/internal/votes"
)

type PostHandler struct {
	db     *gorm.DB
	store  *storage.Store
	engine *votes.Engine
}

func NewPostHandler(db *gorm.DB, store *storage.Store, engine *votes.Engine) *PostHandler {
	return &PostHandler{db: db, store: store, engine: engine}
}

// analyticsFor returns the cached counters for a set of posts, keyed by post
// ID. Posts without an analytics row simply stay absent and read as zeros.
func (h *PostHandler) analyticsFor(postIDs []int) map[int]models.PostAnalytics {
	byPost := make(map[int]models.PostAnalytics, len(postIDs))
	if len(postIDs) == 0 {
		return byPost
	}

	var rows []models.PostAnalytics
	h.db.Where("post_id IN ?", postIDs).Find(&rows)
	for _, row := range rows {
		byPost[row.PostID] = row
	}
	return byPost
}

func postResponse(post models.Post, analytics models.PostAnalytics) gin.H {
	return gin.H{
		"id":             post.ID,
		"user_id":        post.UserID,
		"title":          post.Title,
		"desc":           post.Description,
		"tags":           post.Tags,
		"img_path":       post.ImagePath,
		"user":           post.User,
		"upvotes":        analytics.Upvotes,
		"downvotes":      analytics.Downvotes,
		"comments_count": analytics.CommentsCount,
		"created_at":     post.CreatedAt,
		"updated_at":     post.UpdatedAt,
	}
}

func (h *PostHandler) respondPosts(c *gin.Context, posts []models.Post) {
	ids := make([]int, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}
	analytics := h.analyticsFor(ids)

	responses := []gin.H{}
	for _, post := range posts {
		responses = append(responses, postResponse(post, analytics[post.ID]))
	}

	c.JSON(http.StatusOK, gin.H{"posts": responses})
}

// GetPosts returns all posts with their cached analytics
func (h *PostHandler) GetPosts(c *gin.Context) {
	var posts []models.Post

	if err := h.db.Preload("User").Order("created_at desc").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	h.respondPosts(c, posts)
}

// GetPost returns a single post with its author, analytics, and all comments
// joined with their commenter display fields and cached vote counts
func (h *PostHandler) GetPost(c *gin.Context) {
	postID := c.Param("id")
	var post models.Post

	if err := h.db.Preload("User").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	analytics := h.analyticsFor([]int{post.ID})

	var comments []models.Comment
	if err := h.db.Where("post_id = ?", post.ID).Preload("User").Order("created_at desc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	response := postResponse(post, analytics[post.ID])
	response["comments"] = comments

	c.JSON(http.StatusOK, gin.H{"post": response})
}

// GetUserPosts returns all posts created by a specific user
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID := c.Param("id")
	var posts []models.Post

	if err := h.db.Preload("User").Where("user_id = ?", userID).Order("created_at desc").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	h.respondPosts(c, posts)
}

// CreatePost creates a new post from a multipart form and seeds a zeroed
// analytics row. Both inserts commit as one transaction so a post can never
// exist without its analytics.
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title := c.PostForm("title")
	description := c.PostForm("desc")
	tags := c.PostForm("tags")
	if title == "" || description == "" || tags == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed. Make sure all fields are correct!"})
		return
	}

	imagePath := ""
	if fh, err := c.FormFile("file"); err == nil {
		imagePath, err = h.store.Save(fh)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidType) || errors.Is(err, storage.ErrTooLarge) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file upload"})
		return
	}

	post := models.Post{
		UserID:      userID,
		Title:       title,
		Description: description,
		Tags:        tags,
		ImagePath:   imagePath,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		analytics := models.PostAnalytics{PostID: post.ID}
		return tx.Create(&analytics).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

// UpdatePost updates a post's title, description and tags (owner only)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.UserID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You can only edit your own posts"})
		return
	}

	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Description != "" {
		post.Description = input.Description
	}
	if input.Tags != "" {
		post.Tags = input.Tags
	}

	if err := h.db.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully"})
}

// DeletePost deletes a post plus everything hanging off it (votes on its
// comments, the comments, votes on the post, its analytics row) as one
// transaction, ordered to respect the foreign keys. The post image is
// removed from storage best-effort after the commit.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.UserID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You can only delete your own posts"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []int
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", post.ID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentVote{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostAnalytics{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	h.store.Delete(post.ImagePath)

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// VotePost applies an up/down vote intent to a post and returns the
// refreshed counts
func (h *PostHandler) VotePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing post ID"})
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

	counts, err := h.engine.ApplyPostVote(userID, postID, value)
	if err != nil {
		if errors.Is(err, votes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
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

// SearchPosts returns posts whose title or description contains the search
// term (case-insensitive), or whose tags contain any of the supplied tag
// terms: a union across all predicates. With no term and no tags it lists
// everything.
func (h *PostHandler) SearchPosts(c *gin.Context) {
	var input models.SearchPostsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.SearchTerm == "" && len(input.SearchTags) == 0 {
		h.GetPosts(c)
		return
	}

	var conditions []string
	var args []interface{}

	if input.SearchTerm != "" {
		term := "%" + strings.ToLower(input.SearchTerm) + "%"
		conditions = append(conditions, "LOWER(title) LIKE ?", "LOWER(description) LIKE ?")
		args = append(args, term, term)
	}
	for _, tag := range input.SearchTags {
		if tag == "" {
			continue
		}
		conditions = append(conditions, "LOWER(tags) LIKE ?")
		args = append(args, "%"+strings.ToLower(tag)+"%")
	}

	var posts []models.Post
	query := h.db.Preload("User").Order("created_at desc")
	if len(conditions) > 0 {
		query = query.Where(strings.Join(conditions, " OR "), args...)
	}
	if err := query.Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search posts"})
		return
	}

	h.respondPosts(c, posts)
}
