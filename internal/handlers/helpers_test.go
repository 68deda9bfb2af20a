package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shutterboard/backend/internal/auth"
	"github.com/shutterboard/backend/internal/middleware"
	"github.com/shutterboard/backend/internal/models"
	"github.com/shutterboard/backend/internal/storage"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PostVote{},
		&models.CommentVote{},
		&models.PostAnalytics{},
	)
	require.NoError(t, err)
	return db
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	return storage.New(storage.DefaultConfig(), t.TempDir(), "http://localhost:8080")
}

// setupRouter registers the same routes as the server package, against a
// test database and store.
func setupRouter(db *gorm.DB, store *storage.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(db, store)

	api := r.Group("/api")
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/session", h.Auth.Session)
	api.GET("/posts", h.Post.GetPosts)
	api.GET("/posts/:id", h.Post.GetPost)
	api.GET("/posts/user/:id", h.Post.GetUserPosts)
	api.POST("/posts/search", h.Post.SearchPosts)
	api.GET("/users/:id", h.User.GetUser)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/logout", h.Auth.Logout)
		protected.POST("/posts", h.Post.CreatePost)
		protected.PUT("/posts/:id", h.Post.UpdatePost)
		protected.DELETE("/posts/:id", h.Post.DeletePost)
		protected.POST("/posts/:id/vote", h.Post.VotePost)
		protected.POST("/posts/:id/comments", h.Comment.CreateComment)
		protected.POST("/comments/:commentId/vote", h.Comment.VoteComment)
		protected.DELETE("/comments/:commentId", h.Comment.DeleteComment)
		protected.POST("/users/:id", h.User.UpdateUser)
		protected.DELETE("/users", h.User.DeleteUser)
	}

	return r
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Email: email, Password: string(hash)}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, userID int) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:      userID,
		Title:       "Test Post",
		Description: "Test Description",
		Tags:        "test,tags",
	}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&models.PostAnalytics{PostID: post.ID}).Error)
	return post
}

func createTestComment(t *testing.T, db *gorm.DB, postID, userID int) *models.Comment {
	t.Helper()
	comment := &models.Comment{PostID: postID, UserID: userID, Text: "a comment"}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.GenerateToken(user.ID, user.Email, time.Hour)
	require.NoError(t, err)
	return token
}

func doRequest(router *gin.Engine, method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doJSON(router *gin.Engine, method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	return doRequest(router, method, path, body, "application/json", token)
}

func multipartBody(t *testing.T, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
