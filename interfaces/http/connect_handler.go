package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

type IConnectHandler interface {
	Initiate(c *gin.Context)
	Callback(c *gin.Context)
	ListChannels(c *gin.Context)
	Disconnect(c *gin.Context)
	RefreshToken(c *gin.Context)
}

type ConnectHandler struct {
	connectUsecase usecase.IConnectUsecase
	channelRepo    repository.IChannel
}

func NewConnectHandler(connectUsecase usecase.IConnectUsecase, channelRepo repository.IChannel) IConnectHandler {
	return &ConnectHandler{connectUsecase: connectUsecase, channelRepo: channelRepo}
}

// Initiate handles GET /auth/:platform and returns the provider authorization
// URL carrying the signed state.
func (h *ConnectHandler) Initiate(c *gin.Context) {
	platform, ok := model.ParsePlatform(c.Param("platform"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform: " + c.Param("platform")})
		return
	}
	userID := c.GetString("user_id")
	orgID := c.GetString("organization_id")
	if orgID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing organization_id"})
		return
	}

	res, err := h.connectUsecase.Initiate(c.Request.Context(), userID, orgID, platform)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": platform,
		}).Warn("Connect initiation failed")
		c.JSON(connectStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Callback handles GET /auth/:platform/callback. The provider redirects here;
// no session is required because the state carries the caller's identity.
func (h *ConnectHandler) Callback(c *gin.Context) {
	platform, ok := model.ParsePlatform(c.Param("platform"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform: " + c.Param("platform")})
		return
	}

	errParam := c.Query("error")
	if errParam == "" {
		errParam = c.Query("error_reason")
	}
	res, err := h.connectUsecase.HandleCallback(c.Request.Context(), platform, c.Query("code"), c.Query("state"), errParam)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": platform,
		}).Warn("OAuth callback failed")
		c.JSON(connectStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ConnectHandler) ListChannels(c *gin.Context) {
	orgID := c.GetString("organization_id")
	channels, err := h.channelRepo.GetChannelsByOrganization(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if channels == nil {
		channels = []*model.Channel{}
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *ConnectHandler) Disconnect(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("channelId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}
	orgID := c.GetString("organization_id")
	if err := h.connectUsecase.Disconnect(c.Request.Context(), orgID, channelID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"disconnected": true, "channel_id": channelID})
}

func (h *ConnectHandler) RefreshToken(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("channelId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}
	orgID := c.GetString("organization_id")
	channel, err := h.connectUsecase.RefreshChannelToken(c.Request.Context(), orgID, channelID)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":      err,
			"channel_id": channelID,
		}).Warn("Token refresh failed")
		c.JSON(connectStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": true, "channel": channel})
}

// connectStatus maps connect-flow sentinels onto HTTP statuses.
func connectStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrOAuthDenied):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrExpiredState),
		errors.Is(err, model.ErrReplayedState):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrRefreshUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTokenExchangeFailed),
		errors.Is(err, model.ErrIdentityFetchFailed),
		errors.Is(err, model.ErrTokenRefreshFailed):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrUnsupportedPlatform):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
