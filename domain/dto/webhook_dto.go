package dto

// WebhookSubscribeRequest targets one page.
type WebhookSubscribeRequest struct {
	PageID          string `json:"page_id" binding:"required"`
	PageAccessToken string `json:"page_access_token" binding:"required"`
}

// WebhookSetupRequest enrolls every page a channel's token administers.
type WebhookSetupRequest struct {
	ChannelID int64 `json:"channel_id" binding:"required"`
}
