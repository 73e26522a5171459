package dto

// ConnectInitiateResponse is returned by GET /auth/:platform.
type ConnectInitiateResponse struct {
	AuthURL  string `json:"auth_url"`
	State    string `json:"state"`
	Platform string `json:"platform"`
}

// ConnectCallbackResponse is returned after a successful callback round-trip.
type ConnectCallbackResponse struct {
	Connected   bool   `json:"connected"`
	Platform    string `json:"platform"`
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	ChannelID   int64  `json:"channel_id"`
}
