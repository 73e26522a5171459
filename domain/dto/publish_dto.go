package dto

// PublishRequest is the body of POST /api/channels/:channelId/publish.
// ScheduledForMs is epoch milliseconds; zero means publish immediately.
type PublishRequest struct {
	Caption        string `json:"caption" binding:"required"`
	Type           string `json:"type"`
	ImageURL       string `json:"image_url"`
	VideoURL       string `json:"video_url"`
	ScheduledForMs int64  `json:"scheduled_for_ms"`
}
