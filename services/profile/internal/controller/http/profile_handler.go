package http

import (
	"errors"
	"net/http"
	"path/filepath"

	"warble/pkg/logger"
	"warble/services/profile/internal/entity"
	"warble/services/profile/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUseCase usecase.ProfileUseCase
	logger         *logger.Logger
}

func NewProfileHandler(profileUseCase usecase.ProfileUseCase, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
		logger:         logger,
	}
}

// GetProfile godoc
// @Summary      Get user profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200  {object}  entity.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.profileUseCase.GetProfile(c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to get profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

type UpdateUsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// UpdateUsername godoc
// @Summary      Change display name
// @Description  Change the authenticated user's display name. Existing posts keep the name they were created with.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateUsernameRequest true "New username"
// @Success      200  {object}  entity.User
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /me/username [put]
func (h *ProfileHandler) UpdateUsername(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.profileUseCase.UpdateUsername(userID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrUsernameEmpty):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, entity.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, entity.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			h.logger.Error("Failed to update username: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update username"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadAvatar godoc
// @Summary      Upload avatar
// @Description  Upload a profile photo (under 1 MiB), replacing the previous one
// @Tags         profiles
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar formData file true "Avatar image (jpg/jpeg/png/gif)"
// @Success      200  {object}  entity.User
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /me/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar file is required"})
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".gif" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format. Only jpg, jpeg, png, gif are allowed"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process file"})
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	user, err := h.profileUseCase.UploadAvatar(userID, src, file.Size, contentType)
	if err != nil {
		if errors.Is(err, entity.ErrAvatarTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to upload avatar: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload avatar"})
		return
	}

	c.JSON(http.StatusOK, user)
}
