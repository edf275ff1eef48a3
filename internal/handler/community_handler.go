package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threadnest/api/internal/dto"
	"github.com/threadnest/api/internal/service"
	"github.com/threadnest/api/pkg/apperror"
	"github.com/threadnest/api/pkg/response"
	"github.com/threadnest/api/pkg/validator"
)

type CommunityHandler struct {
	service service.CommunityService
}

func NewCommunityHandler(service service.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

func (h *CommunityHandler) GetCommunities(c *gin.Context) {
	var filter dto.CommunityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	communities, err := h.service.FetchCommunities(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, communities)
}

func (h *CommunityHandler) GetCommunityDetails(c *gin.Context) {
	community, err := h.service.FetchCommunityDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if community == nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) GetCommunityPosts(c *gin.Context) {
	posts, err := h.service.FetchCommunityPosts(c.Request.Context(), c.Param("id"))
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
