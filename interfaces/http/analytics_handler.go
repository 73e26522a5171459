package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

type IAnalyticsHandler interface {
	GetChannelAnalytics(c *gin.Context)
	GetAllAnalytics(c *gin.Context)
}

type AnalyticsHandler struct {
	analyticsUsecase usecase.IAnalyticsUsecase
	channelRepo      repository.IChannel
}

func NewAnalyticsHandler(analyticsUsecase usecase.IAnalyticsUsecase, channelRepo repository.IChannel) IAnalyticsHandler {
	return &AnalyticsHandler{analyticsUsecase: analyticsUsecase, channelRepo: channelRepo}
}

func windowDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("window_days", "30"))
	if err != nil || days <= 0 {
		return 30
	}
	return days
}

// GetChannelAnalytics handles GET /api/channels/:channelId/analytics.
func (h *AnalyticsHandler) GetChannelAnalytics(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("channelId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return
	}
	orgID := c.GetString("organization_id")

	channel, err := h.channelRepo.GetChannel(c.Request.Context(), channelID)
	if err != nil || channel.OrganizationID != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	analytics, err := h.analyticsUsecase.Analyze(c.Request.Context(), channel, windowDays(c))
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":      err,
			"channel_id": channelID,
		}).Warn("Channel analytics request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// GetAllAnalytics handles GET /api/analytics: every active channel of the
// organization, fanned out with bounded concurrency. Always 200; per-channel
// failures ride inside the reports.
func (h *AnalyticsHandler) GetAllAnalytics(c *gin.Context) {
	orgID := c.GetString("organization_id")
	channels, err := h.channelRepo.GetChannelsByOrganization(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	reports := h.analyticsUsecase.AnalyzeAll(c.Request.Context(), channels, windowDays(c))
	if reports == nil {
		reports = []model.ChannelReport{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
