package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"social-hub/domain/model"
)

// PublishStatusEvent represents an SSE payload for post lifecycle updates.
type PublishStatusEvent struct {
	Type           string  `json:"type"`
	PostID         int64   `json:"post_id"`
	ChannelID      int64   `json:"channel_id"`
	Platform       string  `json:"platform"`
	Status         string  `json:"status"`
	ExternalPostID *string `json:"external_post_id,omitempty"`
	Error          *string `json:"error,omitempty"`
}

// Hub maintains per-organization subscribers listening for publish events.
type Hub struct {
	mu   sync.RWMutex
	orgs map[string]map[chan PublishStatusEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{orgs: make(map[string]map[chan PublishStatusEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated organization
// (organization_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	orgID := c.GetString("organization_id")
	if orgID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PublishStatusEvent, 8)
	h.addSubscriber(orgID, ch)
	defer h.removeSubscriber(orgID, ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: publish_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(orgID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.orgs[orgID] == nil {
		h.orgs[orgID] = make(map[chan PublishStatusEvent]struct{})
	}
	h.orgs[orgID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(orgID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.orgs[orgID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.orgs, orgID)
		}
	}
}

// BroadcastPostStatus broadcasts to all subscribers of the owning organization.
func (h *Hub) BroadcastPostStatus(orgID string, post *model.Post, platform model.Platform, errMsg *string) {
	if h == nil || post == nil {
		return
	}
	evt := PublishStatusEvent{
		Type:           "publish_status",
		PostID:         post.ID,
		ChannelID:      post.ChannelID,
		Platform:       string(platform),
		Status:         string(post.Status),
		ExternalPostID: post.ExternalPostID,
		Error:          errMsg,
	}
	h.mu.RLock()
	subs := h.orgs[orgID]
	for ch := range subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
