// Package votes applies a user's vote intent to a post or comment and keeps
// the cached aggregate counters consistent with the vote tables.
//
// The state machine is the same for both targets:
//
//	no existing vote        -> insert row
//	existing vote == intent -> delete row (toggle off)
//	existing vote != intent -> update row in place (switch)
//
// After the mutation the counters are re-derived by aggregate COUNT queries
// over the vote table inside the same transaction. The aggregates are the
// authoritative step; the cached columns never drift further than the
// transaction boundary.
package votes

import (
	"errors"

	"gorm.io/gorm"

	"github.com/shutterboard/backend/internal/models"
)

const (
	Up   = 1
	Down = -1
)

var (
	// ErrNotFound is returned when the vote target does not exist.
	ErrNotFound = errors.New("vote target not found")
	// ErrInvalidVote is returned for any value other than Up or Down.
	ErrInvalidVote = errors.New("vote value must be 1 or -1")
)

// Counts is the refreshed aggregate returned to the caller.
type Counts struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// ApplyPostVote applies a vote intent to a post and returns the refreshed
// counts. The vote mutation, the aggregate recomputation and the analytics
// update commit as one transaction or not at all. If the post has no
// analytics row yet, one is created seeded from the aggregates.
func (e *Engine) ApplyPostVote(userID, postID, value int) (Counts, error) {
	if value != Up && value != Down {
		return Counts{}, ErrInvalidVote
	}

	var counts Counts
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing models.PostVote
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		// "Has voted" is keyed on row existence, never on the stored value.
		switch {
		case err == nil && existing.Value == value:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case err == nil:
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.PostVote{UserID: userID, PostID: postID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		default:
			return err
		}

		c, err := postVoteCounts(tx, postID)
		if err != nil {
			return err
		}
		counts = c

		var analytics models.PostAnalytics
		err = tx.Where("post_id = ?", postID).First(&analytics).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			analytics = models.PostAnalytics{
				PostID:    postID,
				Upvotes:   int(counts.Upvotes),
				Downvotes: int(counts.Downvotes),
			}
			return tx.Create(&analytics).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&analytics).Updates(map[string]interface{}{
			"upvotes":   counts.Upvotes,
			"downvotes": counts.Downvotes,
		}).Error
	})
	if err != nil {
		return Counts{}, err
	}
	return counts, nil
}

// ApplyCommentVote is the comment-side twin of ApplyPostVote. The refreshed
// aggregates are written back onto the comment row's cached columns.
func (e *Engine) ApplyCommentVote(userID, commentID, value int) (Counts, error) {
	if value != Up && value != Down {
		return Counts{}, ErrInvalidVote
	}

	var counts Counts
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing models.CommentVote
		err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&existing).Error
		switch {
		case err == nil && existing.Value == value:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case err == nil:
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.CommentVote{UserID: userID, CommentID: commentID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		default:
			return err
		}

		c, err := commentVoteCounts(tx, commentID)
		if err != nil {
			return err
		}
		counts = c

		return tx.Model(&comment).Updates(map[string]interface{}{
			"upvotes":   counts.Upvotes,
			"downvotes": counts.Downvotes,
		}).Error
	})
	if err != nil {
		return Counts{}, err
	}
	return counts, nil
}

// ParseIntent maps the wire format ("up"/"down") to a vote value.
func ParseIntent(intent string) (int, error) {
	switch intent {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return 0, ErrInvalidVote
	}
}

func postVoteCounts(tx *gorm.DB, postID int) (Counts, error) {
	var c Counts
	if err := tx.Model(&models.PostVote{}).
		Where("post_id = ? AND value = ?", postID, Up).Count(&c.Upvotes).Error; err != nil {
		return c, err
	}
	if err := tx.Model(&models.PostVote{}).
		Where("post_id = ? AND value = ?", postID, Down).Count(&c.Downvotes).Error; err != nil {
		return c, err
	}
	return c, nil
}

func commentVoteCounts(tx *gorm.DB, commentID int) (Counts, error) {
	var c Counts
	if err := tx.Model(&models.CommentVote{}).
		Where("comment_id = ? AND value = ?", commentID, Up).Count(&c.Upvotes).Error; err != nil {
		return c, err
	}
	if err := tx.Model(&models.CommentVote{}).
		Where("comment_id = ? AND value = ?", commentID, Down).Count(&c.Downvotes).Error; err != nil {
		return c, err
	}
	return c, nil
}
