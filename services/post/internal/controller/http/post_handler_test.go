package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warble/pkg/logger"
	"warble/services/post/internal/entity"
	"warble/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostUseCase is a mock implementation of PostUseCase
type MockPostUseCase struct {
	mock.Mock
}

func (m *MockPostUseCase) CreatePost(authorID, authorName, text string, media []*usecase.MediaFile) (*entity.Post, error) {
	args := m.Called(authorID, authorName, text, media)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) GetPost(postID string) (*entity.Post, error) {
	args := m.Called(postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) ListPosts(limit int) ([]*entity.Post, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) GetAuthorPosts(authorID string, limit int) ([]*entity.Post, error) {
	args := m.Called(authorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) UpdatePost(postID, actorID, newText string, media []*usecase.MediaFile, removeMedia bool) (*entity.Post, error) {
	args := m.Called(postID, actorID, newText, media, removeMedia)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) DeletePost(postID, actorID string) error {
	args := m.Called(postID, actorID)
	return args.Error(0)
}

var _ usecase.PostUseCase = (*MockPostUseCase)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func asUser(userID, username string, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("username", username)
		handler(c)
	}
}

func multipartBody(t *testing.T, fields map[string]string, fileContent []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileContent != nil {
		fw, err := w.CreateFormFile("media", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func samplePost(mediaURL string) *entity.Post {
	return &entity.Post{
		ID:         "post-123",
		AuthorID:   "author-123",
		AuthorName: "alice",
		Text:       "hello",
		MediaURL:   mediaURL,
		CreatedAt:  time.Now(),
	}
}

func TestCreatePost_TextOnly(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", asUser("author-123", "alice", handler.CreatePost))

	mockUseCase.On("CreatePost", "author-123", "alice", "hello", ([]*usecase.MediaFile)(nil)).
		Return(samplePost(""), nil)

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "post-123", response["id"])
	assert.NotContains(t, response, "media_url")
	assert.NotContains(t, response, "warning")
	mockUseCase.AssertExpectations(t)
}

func TestCreatePost_WithMedia(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", asUser("author-123", "alice", handler.CreatePost))

	mockUseCase.On("CreatePost", "author-123", "alice", "hello", mock.Anything).
		Run(func(args mock.Arguments) {
			media := args.Get(3).([]*usecase.MediaFile)
			require.Len(t, media, 1)
			assert.Equal(t, int64(4), media[0].Size)
		}).
		Return(samplePost("https://cdn.test/media/author-123/post-123"), nil)

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, []byte("data"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "https://cdn.test/media/author-123/post-123", response["media_url"])
	mockUseCase.AssertExpectations(t)
}

func TestCreatePost_TextTooLong(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", asUser("author-123", "alice", handler.CreatePost))

	mockUseCase.On("CreatePost", "author-123", "alice", "hello", ([]*usecase.MediaFile)(nil)).
		Return(nil, entity.ErrTextLength)

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestCreatePost_UploadPartialFailure(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", asUser("author-123", "alice", handler.CreatePost))

	partial := &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: errors.New("upload failed")}
	mockUseCase.On("CreatePost", "author-123", "alice", "hello", mock.Anything).
		Return(samplePost(""), partial)

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, []byte("data"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	// The text post made it, so the client still gets a 201 with a warning
	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "post-123", response["id"])
	assert.NotEmpty(t, response["warning"])
	mockUseCase.AssertExpectations(t)
}

func TestCreatePost_StoreUnavailable(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/posts", asUser("author-123", "alice", handler.CreatePost))

	mockUseCase.On("CreatePost", "author-123", "alice", "hello", ([]*usecase.MediaFile)(nil)).
		Return(nil, entity.ErrStoreUnavailable)

	body, contentType := multipartBody(t, map[string]string{"text": "hello"}, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestGetPost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts/:id", handler.GetPost)

	mockUseCase.On("GetPost", "post-123").Return(samplePost("https://cdn.test/media/author-123/post-123"), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/post-123", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "hello", response["text"])
	assert.Equal(t, "https://cdn.test/media/author-123/post-123", response["media_url"])
	mockUseCase.AssertExpectations(t)
}

func TestGetPost_NotFound(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts/:id", handler.GetPost)

	mockUseCase.On("GetPost", "missing").Return(nil, entity.ErrNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/missing", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestListPosts_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts", handler.ListPosts)

	mockPosts := []*entity.Post{samplePost(""), samplePost("https://cdn.test/media/a/b")}
	mockUseCase.On("ListPosts", 25).Return(mockPosts, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	posts := response["posts"].([]interface{})
	assert.Equal(t, 2, len(posts))
	mockUseCase.AssertExpectations(t)
}

func TestListPosts_LimitQuery(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts", handler.ListPosts)

	mockUseCase.On("ListPosts", 5).Return([]*entity.Post{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts?limit=5", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestGetAuthorPosts_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/posts/author/:author_id", handler.GetAuthorPosts)

	mockUseCase.On("GetAuthorPosts", "author-123", 25).Return([]*entity.Post{samplePost("")}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/author/author-123", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	posts := response["posts"].([]interface{})
	assert.Equal(t, 1, len(posts))
	mockUseCase.AssertExpectations(t)
}

func TestUpdatePost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PUT("/posts/:id", asUser("author-123", "alice", handler.UpdatePost))

	updated := samplePost("")
	updated.Text = "edited"
	mockUseCase.On("UpdatePost", "post-123", "author-123", "edited", ([]*usecase.MediaFile)(nil), false).
		Return(updated, nil)

	body, contentType := multipartBody(t, map[string]string{"text": "edited"}, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/posts/post-123", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "edited", response["text"])
	mockUseCase.AssertExpectations(t)
}

func TestUpdatePost_RemoveMediaFlag(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PUT("/posts/:id", asUser("author-123", "alice", handler.UpdatePost))

	mockUseCase.On("UpdatePost", "post-123", "author-123", "edited", ([]*usecase.MediaFile)(nil), true).
		Return(samplePost(""), nil)

	body, contentType := multipartBody(t, map[string]string{"text": "edited", "remove_media": "true"}, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/posts/post-123", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestUpdatePost_Forbidden(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PUT("/posts/:id", asUser("intruder", "mallory", handler.UpdatePost))

	mockUseCase.On("UpdatePost", "post-123", "intruder", "edited", ([]*usecase.MediaFile)(nil), false).
		Return(nil, entity.ErrNotOwner)

	body, contentType := multipartBody(t, map[string]string{"text": "edited"}, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/posts/post-123", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestUpdatePost_PartialFailure(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PUT("/posts/:id", asUser("author-123", "alice", handler.UpdatePost))

	partial := &entity.PartialFailure{Reason: entity.MediaUploadFailed, Err: errors.New("upload failed")}
	mockUseCase.On("UpdatePost", "post-123", "author-123", "edited", mock.Anything, false).
		Return(samplePost(""), partial)

	body, contentType := multipartBody(t, map[string]string{"text": "edited"}, []byte("data"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/posts/post-123", body)
	req.Header.Set("Content-Type", contentType)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotEmpty(t, response["warning"])
	mockUseCase.AssertExpectations(t)
}

func TestDeletePost_Success(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.DELETE("/posts/:id", asUser("author-123", "alice", handler.DeletePost))

	mockUseCase.On("DeletePost", "post-123", "author-123").Return(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/posts/post-123", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestDeletePost_Forbidden(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.DELETE("/posts/:id", asUser("intruder", "mallory", handler.DeletePost))

	mockUseCase.On("DeletePost", "post-123", "intruder").Return(entity.ErrNotOwner)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/posts/post-123", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestDeletePost_OrphanWarning(t *testing.T) {
	mockUseCase := new(MockPostUseCase)
	handler := NewPostHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.DELETE("/posts/:id", asUser("author-123", "alice", handler.DeletePost))

	partial := &entity.PartialFailure{Reason: entity.OrphanBlob, Err: errors.New("delete failed")}
	mockUseCase.On("DeletePost", "post-123", "author-123").Return(partial)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/posts/post-123", nil)

	router.ServeHTTP(w, req)

	// The record is gone, so the delete reports success with a warning
	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotEmpty(t, response["warning"])
	mockUseCase.AssertExpectations(t)
}

func TestFormatPostResponse_OmitsEmptyMediaURL(t *testing.T) {
	response := formatPostResponse(samplePost(""))
	assert.NotContains(t, response, "media_url")

	response = formatPostResponse(samplePost("https://cdn.test/media/a/b"))
	assert.Equal(t, "https://cdn.test/media/a/b", response["media_url"])
}
