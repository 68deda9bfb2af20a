package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterboard/backend/internal/models"
)

func TestCreateComment_IncrementsCommentsCount(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	owner := createTestUser(t, db, "owner@example.com", "p1")
	commenter := createTestUser(t, db, "commenter@example.com", "p2")
	post := createTestPost(t, db, owner.ID)

	w := doJSON(router, "POST", fmt.Sprintf("/api/posts/%d/comments", post.ID),
		models.CreateCommentRequest{Text: "nice shot"}, tokenFor(t, commenter))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	comment := body["comment"].(map[string]interface{})
	assert.Equal(t, "nice shot", comment["text"])
	author := comment["user"].(map[string]interface{})
	assert.Equal(t, "commenter@example.com", author["email"])

	var analytics models.PostAnalytics
	require.NoError(t, db.Where("post_id = ?", post.ID).First(&analytics).Error)
	assert.Equal(t, 1, analytics.CommentsCount)
}

func TestCreateComment_SeedsAnalyticsWhenMissing(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	owner := createTestUser(t, db, "owner@example.com", "p1")
	post := createTestPost(t, db, owner.ID)

	// Simulate a post that predates its analytics row.
	require.NoError(t, db.Where("post_id = ?", post.ID).Delete(&models.PostAnalytics{}).Error)

	w := doJSON(router, "POST", fmt.Sprintf("/api/posts/%d/comments", post.ID),
		models.CreateCommentRequest{Text: "first"}, tokenFor(t, owner))
	require.Equal(t, http.StatusOK, w.Code)

	var analytics models.PostAnalytics
	require.NoError(t, db.Where("post_id = ?", post.ID).First(&analytics).Error)
	assert.Equal(t, 1, analytics.CommentsCount)
	assert.Equal(t, 0, analytics.Upvotes)
	assert.Equal(t, 0, analytics.Downvotes)
}

func TestCreateComment_MissingText(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	user := createTestUser(t, db, "user@example.com", "p1")
	post := createTestPost(t, db, user.ID)

	w := doJSON(router, "POST", fmt.Sprintf("/api/posts/%d/comments", post.ID),
		models.CreateCommentRequest{}, tokenFor(t, user))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateComment_PostNotFound(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	user := createTestUser(t, db, "user@example.com", "p1")

	w := doJSON(router, "POST", "/api/posts/999/comments",
		models.CreateCommentRequest{Text: "hello"}, tokenFor(t, user))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Deletion recounts the remaining comments instead of decrementing, so the
// count self-heals and the last deletion lands on exactly zero.
func TestDeleteComment_RecountsRemaining(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	owner := createTestUser(t, db, "owner@example.com", "p1")
	post := createTestPost(t, db, owner.ID)
	first := createTestComment(t, db, post.ID, owner.ID)
	second := createTestComment(t, db, post.ID, owner.ID)

	// Drifted counter on purpose; the recount must fix it.
	require.NoError(t, db.Model(&models.PostAnalytics{}).
		Where("post_id = ?", post.ID).Update("comments_count", 7).Error)

	token := tokenFor(t, owner)

	w := doJSON(router, "DELETE", fmt.Sprintf("/api/comments/%d", first.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var analytics models.PostAnalytics
	require.NoError(t, db.Where("post_id = ?", post.ID).First(&analytics).Error)
	assert.Equal(t, 1, analytics.CommentsCount)

	w = doJSON(router, "DELETE", fmt.Sprintf("/api/comments/%d", second.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Where("post_id = ?", post.ID).First(&analytics).Error)
	assert.Equal(t, 0, analytics.CommentsCount, "last deletion must land on zero, never negative")
}

func TestDeleteComment_RemovesItsVotes(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	owner := createTestUser(t, db, "owner@example.com", "p1")
	voter := createTestUser(t, db, "voter@example.com", "p2")
	post := createTestPost(t, db, owner.ID)
	comment := createTestComment(t, db, post.ID, owner.ID)

	require.NoError(t, db.Create(&models.CommentVote{UserID: voter.ID, CommentID: comment.ID, Value: 1}).Error)

	w := doJSON(router, "DELETE", fmt.Sprintf("/api/comments/%d", comment.ID), nil, tokenFor(t, owner))
	require.Equal(t, http.StatusOK, w.Code)

	var votes int64
	db.Model(&models.CommentVote{}).Count(&votes)
	assert.Equal(t, int64(0), votes)
}

func TestDeleteComment_NotAuthor(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	owner := createTestUser(t, db, "owner@example.com", "p1")
	stranger := createTestUser(t, db, "stranger@example.com", "p2")
	post := createTestPost(t, db, owner.ID)
	comment := createTestComment(t, db, post.ID, owner.ID)

	w := doJSON(router, "DELETE", fmt.Sprintf("/api/comments/%d", comment.ID), nil, tokenFor(t, stranger))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestVoteComment_ToggleThroughAPI(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(db, newTestStore(t))

	user := createTestUser(t, db, "voter@example.com", "p1")
	post := createTestPost(t, db, user.ID)
	comment := createTestComment(t, db, post.ID, user.ID)
	token := tokenFor(t, user)

	path := fmt.Sprintf("/api/comments/%d/vote", comment.ID)

	w := doJSON(router, "POST", path, models.VoteRequest{Vote: "up"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	votes := decodeBody(t, w)["votes"].(map[string]interface{})
	assert.Equal(t, float64(1), votes["upvotes"])

	w = doJSON(router, "POST", path, models.VoteRequest{Vote: "up"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	votes = decodeBody(t, w)["votes"].(map[string]interface{})
	assert.Equal(t, float64(0), votes["upvotes"])
	assert.Equal(t, float64(0), votes["downvotes"])
}
