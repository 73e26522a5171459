package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-hub/domain/dto"
	"social-hub/infrastructure/logger"
	"social-hub/usecase"
)

type IWebhookHandler interface {
	Verify(c *gin.Context)
	Receive(c *gin.Context)
	Subscribe(c *gin.Context)
	Unsubscribe(c *gin.Context)
	Status(c *gin.Context)
	Setup(c *gin.Context)
}

type WebhookHandler struct {
	webhookUsecase usecase.IWebhookUsecase
}

func NewWebhookHandler(webhookUsecase usecase.IWebhookUsecase) IWebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase}
}

// Verify answers the provider's GET verification handshake. The challenge is
// echoed back as plain text only when the verify token matches.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, ok := h.webhookUsecase.Verify(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if !ok {
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive ingests a pushed event. The provider only needs a 200; processing
// happens downstream of the queue.
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if err := h.webhookUsecase.Ingest(c.Request.Context(), c.Param("platform"), payload); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":    err,
			"platform": c.Param("platform"),
		}).Warn("Webhook ingest failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) Subscribe(c *gin.Context) {
	var req dto.WebhookSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.webhookUsecase.Subscribe(c.Request.Context(), req.PageID, req.PageAccessToken); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": true, "page_id": req.PageID})
}

func (h *WebhookHandler) Unsubscribe(c *gin.Context) {
	var req dto.WebhookSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.webhookUsecase.Unsubscribe(c.Request.Context(), req.PageID, req.PageAccessToken); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": false, "page_id": req.PageID})
}

func (h *WebhookHandler) Status(c *gin.Context) {
	pageID := c.Query("page_id")
	accessToken := c.Query("page_access_token")
	if pageID == "" || accessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_id and page_access_token are required"})
		return
	}
	status, err := h.webhookUsecase.Status(c.Request.Context(), pageID, accessToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Setup enrolls every page a channel administers. Partial success is still a
// 200; the per-page errors ride in the body.
func (h *WebhookHandler) Setup(c *gin.Context) {
	var req dto.WebhookSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.webhookUsecase.SetupForChannel(c.Request.Context(), c.GetString("organization_id"), req.ChannelID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if !result.Success() {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}
