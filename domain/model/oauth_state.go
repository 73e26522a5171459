package model

// OAuthState is the self-contained payload carried through an OAuth redirect
// round-trip. It is never persisted; the signed encoding plus the replay guard
// make it valid for exactly one use within its age window.
type OAuthState struct {
	UserID         string   `json:"user_id"`
	OrganizationID string   `json:"organization_id"`
	Platform       Platform `json:"platform"`
	TimestampMs    int64    `json:"timestamp_ms"`
	Nonce          string   `json:"nonce"`
}
