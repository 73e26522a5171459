package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

type IPublishHandler interface {
	Publish(c *gin.Context)
	GetPost(c *gin.Context)
	GetRecentPosts(c *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
	postRepo       repository.IPost
}

func NewPublishHandler(publishUsecase usecase.IPublishUsecase, postRepo repository.IPost) IPublishHandler {
	return &PublishHandler{publishUsecase: publishUsecase, postRepo: postRepo}
}

// Publish handles POST /api/channels/:channelId/publish.
func (h *PublishHandler) Publish(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("channelId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	orgID := c.GetString("organization_id")

	post, err := h.publishUsecase.Publish(c.Request.Context(), orgID, channelID, req)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":      err,
			"channel_id": channelID,
		}).Warn("Publish request failed")
		c.JSON(publishStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PublishHandler) GetPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("postId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	post, err := h.postRepo.GetPost(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if post.OrganizationID != c.GetString("organization_id") {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PublishHandler) GetRecentPosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	posts, err := h.postRepo.GetRecentPublished(c.Request.Context(), c.GetString("organization_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func publishStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, model.ErrMissingBusinessAccount),
		errors.Is(err, model.ErrChannelInactive),
		errors.Is(err, model.ErrUnsupportedPlatform):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPublishFailed):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrPersistFailed):
		return http.StatusInternalServerError
	default:
		if pe, ok := model.AsProviderError(err); ok {
			if pe.Timeout {
				return http.StatusGatewayTimeout
			}
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}
