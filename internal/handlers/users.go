package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shutterboard/backend/internal/models"
	"github.com/shutterboard/backend/internal/storage"
	"github.com/shutterboard/backend/internal/votes"
)

type UserHandler struct {
	db    *gorm.DB
	store *storage.Store
}

func NewUserHandler(db *gorm.DB, store *storage.Store) *UserHandler {
	return &UserHandler{db: db, store: store}
}

// GetUser returns a user's public profile
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")
	var user models.User

	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser updates the authenticated user's profile from a multipart form.
// Only provided fields are considered; if every provided value matches the
// stored one and no image changed, nothing is written and the response says
// so. A new upload replaces (and deletes) the previous image; an explicit
// empty img_path removes it.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	pathID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user ID"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if pathID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You can only update your own profile"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	updates := map[string]interface{}{}
	if firstName, provided := c.GetPostForm("first_name"); provided && firstName != user.FirstName {
		updates["first_name"] = firstName
	}
	if lastName, provided := c.GetPostForm("last_name"); provided && lastName != user.LastName {
		updates["last_name"] = lastName
	}

	oldImage := user.ImagePath
	removeOldImage := false

	if fh, err := c.FormFile("file"); err == nil {
		newPath, err := h.store.Save(fh)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidType) || errors.Is(err, storage.ErrTooLarge) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
		updates["image_path"] = newPath
		removeOldImage = oldImage != ""
	} else if imgPath, provided := c.GetPostForm("img_path"); provided && imgPath == "" && user.ImagePath != "" {
		updates["image_path"] = ""
		removeOldImage = true
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "User unchanged"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	if removeOldImage {
		h.store.Delete(oldImage)
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

// DeleteUser deletes the authenticated account after re-checking the
// password. One transaction cascades over everything the user owns: votes
// and comments they made, their posts with all attached comments, votes and
// analytics, and finally the user row. Cached counters of foreign posts they
// had touched are recounted from the authoritative tables. Image files are
// removed best-effort after the commit.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	// Collect image paths up front; files are deleted only after the commit.
	imagePaths := []string{user.ImagePath}
	var ownedPosts []models.Post
	h.db.Where("user_id = ?", userID).Find(&ownedPosts)
	ownedPostIDs := make([]int, 0, len(ownedPosts))
	for _, post := range ownedPosts {
		ownedPostIDs = append(ownedPostIDs, post.ID)
		imagePaths = append(imagePaths, post.ImagePath)
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		// Foreign posts whose cached counters this user's rows contribute to.
		var touchedPostIDs []int
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).
			Distinct().Pluck("post_id", &touchedPostIDs).Error; err != nil {
			return err
		}
		var votedPostIDs []int
		if err := tx.Model(&models.PostVote{}).Where("user_id = ?", userID).
			Distinct().Pluck("post_id", &votedPostIDs).Error; err != nil {
			return err
		}
		touchedPostIDs = append(touchedPostIDs, votedPostIDs...)

		// Votes on the user's own comments, then their comment votes and comments.
		var ownCommentIDs []int
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).
			Pluck("id", &ownCommentIDs).Error; err != nil {
			return err
		}
		if len(ownCommentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", ownCommentIDs).Delete(&models.CommentVote{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		// Owned posts cascade: comment votes -> comments -> post votes ->
		// analytics -> posts.
		if len(ownedPostIDs) > 0 {
			var commentIDs []int
			if err := tx.Model(&models.Comment{}).Where("post_id IN ?", ownedPostIDs).
				Pluck("id", &commentIDs).Error; err != nil {
				return err
			}
			if len(commentIDs) > 0 {
				if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentVote{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("post_id IN ?", ownedPostIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", ownedPostIDs).Delete(&models.PostVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", ownedPostIDs).Delete(&models.PostAnalytics{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		// The user's votes on other people's posts.
		if err := tx.Where("user_id = ?", userID).Delete(&models.PostVote{}).Error; err != nil {
			return err
		}

		// Recount cached aggregates for surviving posts the user had touched.
		for _, postID := range touchedPostIDs {
			if containsID(ownedPostIDs, postID) {
				continue
			}
			if err := recountAnalytics(tx, postID); err != nil {
				return err
			}
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while deleting the account"})
		return
	}

	for _, path := range imagePaths {
		h.store.Delete(path)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func containsID(ids []int, id int) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// recountAnalytics refreshes a post's cached counters from the vote and
// comment tables.
func recountAnalytics(tx *gorm.DB, postID int) error {
	var upvotes, downvotes, comments int64
	if err := tx.Model(&models.PostVote{}).Where("post_id = ? AND value = ?", postID, votes.Up).Count(&upvotes).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.PostVote{}).Where("post_id = ? AND value = ?", postID, votes.Down).Count(&downvotes).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
		return err
	}
	return tx.Model(&models.PostAnalytics{}).Where("post_id = ?", postID).Updates(map[string]interface{}{
		"upvotes":        upvotes,
		"downvotes":      downvotes,
		"comments_count": comments,
	}).Error
}
