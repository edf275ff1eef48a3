package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/service"
	"github.com/threadnest/api/pkg/apperror"
	"github.com/threadnest/api/pkg/response"
	"github.com/threadnest/api/pkg/storage"
	"github.com/threadnest/api/pkg/validator"
)

const maxAvatarSize = 5 << 20 // 5 MiB

type UserHandler struct {
	service      service.UserService
	imageStorage storage.ImageStorage
}

func NewUserHandler(service service.UserService, imageStorage storage.ImageStorage) *UserHandler {
	return &UserHandler{service: service, imageStorage: imageStorage}
}

// UpdateProfile upserts the caller's own profile. The identity middleware
// supplies whose profile that is; the body only carries profile fields.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.UpdateUser(c.Request.Context(), userID, req); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated successfully"})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.FetchUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if user == nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUserPosts(c *gin.Context) {
	posts, err := h.service.FetchUserPosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if posts == nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *UserHandler) GetActivity(c *gin.Context) {
	items, err := h.service.GetActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	hits, err := h.service.SearchUsers(query.Q, query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hits})
}

// UploadAvatar stores the uploaded image and returns its URL. The client
// passes that URL back through UpdateProfile.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	if _, err := response.GetUserID(c); err != nil {
		response.ResponseError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}
	if fileHeader.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, apperror.ErrBadRequest)
		return
	}
	defer file.Close()

	url, err := h.imageStorage.UploadImage(c.Request.Context(), file, "avatars", fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
