package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"warble/pkg/logger"
	"warble/services/post/internal/entity"
	"warble/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postUseCase usecase.PostUseCase
	logger      *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
		logger:      logger,
	}
}

func formatPostResponse(post *entity.Post) map[string]interface{} {
	response := map[string]interface{}{
		"id":          post.ID,
		"author_id":   post.AuthorID,
		"author_name": post.AuthorName,
		"text":        post.Text,
		"created_at":  post.CreatedAt,
		"updated_at":  post.UpdatedAt,
	}

	if post.MediaURL != "" {
		response["media_url"] = post.MediaURL
	}

	return response
}

// mediaFromForm opens the uploaded files without judging how many there are;
// the use case owns that rule.
func mediaFromForm(headers []*multipart.FileHeader) ([]*usecase.MediaFile, []multipart.File, error) {
	var files []*usecase.MediaFile
	var opened []multipart.File
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			for _, o := range opened {
				o.Close()
			}
			return nil, nil, err
		}
		opened = append(opened, f)
		files = append(files, &usecase.MediaFile{
			Reader:      f,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		})
	}
	return files, opened, nil
}

func closeAll(opened []multipart.File) {
	for _, f := range opened {
		f.Close()
	}
}

func (h *PostHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrTextLength),
		errors.Is(err, entity.ErrMediaTooLarge),
		errors.Is(err, entity.ErrTooManyFiles):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, entity.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store temporarily unavailable"})
	default:
		h.logger.Error("Post operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// CreatePost godoc
// @Summary      Create a new post
// @Description  Create a short text post with an optional photo attachment (one file, under 1 MiB)
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        text formData string true "Post text (1-180 characters)"
// @Param        media formData file false "Photo attachment"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID := c.GetString("user_id")
	username := c.GetString("username")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return
	}

	var text string
	if values := form.Value["text"]; len(values) > 0 {
		text = values[0]
	}

	media, opened, err := mediaFromForm(form.File["media"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read media file"})
		return
	}
	defer closeAll(opened)

	post, err := h.postUseCase.CreatePost(userID, username, text, media)

	var partial *entity.PartialFailure
	if errors.As(err, &partial) {
		h.logger.Warn("Create finished partially for post %s: %v", post.ID, err)
		response := formatPostResponse(post)
		response["warning"] = partial.Message()
		c.JSON(http.StatusCreated, response)
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, formatPostResponse(post))
}

// GetPost godoc
// @Summary      Get post by ID
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postUseCase.GetPost(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, formatPostResponse(post))
}

// ListPosts godoc
// @Summary      List recent posts
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of posts to return (max 100)"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	limit := parseLimit(c)

	posts, err := h.postUseCase.ListPosts(limit)
	if err != nil {
		h.logger.Error("Failed to list posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": formatPostList(posts), "count": len(posts)})
}

// GetAuthorPosts godoc
// @Summary      Get posts by author
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        author_id path string true "Author ID"
// @Param        limit query int false "Number of posts to return (max 100)"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /posts/author/{author_id} [get]
func (h *PostHandler) GetAuthorPosts(c *gin.Context) {
	authorID := c.Param("author_id")
	limit := parseLimit(c)

	posts, err := h.postUseCase.GetAuthorPosts(authorID, limit)
	if err != nil {
		h.logger.Error("Failed to get author posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": formatPostList(posts), "count": len(posts)})
}

// UpdatePost godoc
// @Summary      Update post
// @Description  Update post text and optionally replace or remove the attachment. Only the author can update their own posts.
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Param        text formData string true "New post text (1-180 characters)"
// @Param        media formData file false "Replacement photo"
// @Param        remove_media formData bool false "Remove the current attachment"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID := c.Param("id")
	userID := c.GetString("user_id")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return
	}

	var text string
	if values := form.Value["text"]; len(values) > 0 {
		text = values[0]
	}

	removeMedia := false
	if values := form.Value["remove_media"]; len(values) > 0 {
		removeMedia, _ = strconv.ParseBool(values[0])
	}

	media, opened, err := mediaFromForm(form.File["media"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read media file"})
		return
	}
	defer closeAll(opened)

	post, err := h.postUseCase.UpdatePost(postID, userID, text, media, removeMedia)

	var partial *entity.PartialFailure
	if errors.As(err, &partial) {
		h.logger.Warn("Update finished partially for post %s: %v", postID, err)
		response := formatPostResponse(post)
		response["warning"] = partial.Message()
		c.JSON(http.StatusOK, response)
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, formatPostResponse(post))
}

// DeletePost godoc
// @Summary      Delete post
// @Description  Delete a post and its attachment. Only the author can delete their own posts.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	userID := c.GetString("user_id")

	err := h.postUseCase.DeletePost(postID, userID)

	var partial *entity.PartialFailure
	if errors.As(err, &partial) {
		h.logger.Warn("Delete finished partially for post %s: %v", postID, err)
		c.JSON(http.StatusOK, gin.H{"message": "Post deleted", "warning": partial.Message()})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func parseLimit(c *gin.Context) int {
	limit := 25
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	return limit
}

func formatPostList(posts []*entity.Post) []map[string]interface{} {
	out := make([]map[string]interface{}, len(posts))
	for i, post := range posts {
		out[i] = formatPostResponse(post)
	}
	return out
}
