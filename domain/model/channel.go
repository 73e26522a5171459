package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Platform identifies a supported social provider.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
)

// ParsePlatform normalizes a platform string; ok is false for unknown values.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformFacebook:
		return PlatformFacebook, true
	case PlatformInstagram:
		return PlatformInstagram, true
	case PlatformTikTok:
		return PlatformTikTok, true
	}
	return "", false
}

// Channel is a persisted, authorized connection between an organization and one
// external platform account. At most one row exists per
// (organization_id, platform, external_id); the repository enforces this with an
// atomic upsert, never a find-then-write.
type Channel struct {
	ID             int64      `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Platform       Platform   `json:"platform"`
	ExternalID     string     `json:"external_id"`
	DisplayName    string     `json:"display_name"`
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	Meta           PlatformMeta
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ManagedPage is a Facebook page administered by the connected user.
type ManagedPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token,omitempty"`
	Category    string `json:"category,omitempty"`
}

// PlatformMeta is the provider-tagged metadata blob stored with a Channel.
// Exactly one of the provider sections is populated, matching Channel.Platform.
// Permissions are coerced into a canonical slice once, at callback time.
type PlatformMeta struct {
	Permissions []string       `json:"permissions,omitempty"`
	Facebook    *FacebookMeta  `json:"facebook,omitempty"`
	Instagram   *InstagramMeta `json:"instagram,omitempty"`
	TikTok      *TikTokMeta    `json:"tiktok,omitempty"`
}

type FacebookMeta struct {
	UserID string        `json:"user_id"`
	Name   string        `json:"name"`
	Pages  []ManagedPage `json:"pages,omitempty"`
}

type InstagramMeta struct {
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	BusinessAccountID string `json:"business_account_id,omitempty"`
	FollowersCount    int64  `json:"followers_count,omitempty"`
}

type TikTokMeta struct {
	OpenID      string `json:"open_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// PermissionSet returns the granted permissions as a set for gate checks.
func (m PlatformMeta) PermissionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(m.Permissions))
	for _, p := range m.Permissions {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

// HasPermissions reports whether every named permission was granted.
func (m PlatformMeta) HasPermissions(perms ...string) bool {
	set := m.PermissionSet()
	for _, p := range perms {
		if _, ok := set[strings.ToLower(p)]; !ok {
			return false
		}
	}
	return true
}

// FirstPage returns the first managed Facebook page, if any.
func (m PlatformMeta) FirstPage() *ManagedPage {
	if m.Facebook == nil || len(m.Facebook.Pages) == 0 {
		return nil
	}
	return &m.Facebook.Pages[0]
}

// CoercePermissions normalizes the shapes providers (and older stored rows) use
// for granted permissions: a JSON array, a single scope string, or a
// comma/space-joined list. Unknown shapes coerce to an empty slice.
func CoercePermissions(raw interface{}) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		parts = v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case string:
		parts = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		return nil
	}
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// MarshalMeta serializes PlatformMeta for storage in the channels.meta column.
func MarshalMeta(m PlatformMeta) ([]byte, error) { return json.Marshal(m) }

// UnmarshalMeta parses a stored meta column, tolerating the legacy free-form
// permissions shapes via CoercePermissions.
func UnmarshalMeta(data []byte) (PlatformMeta, error) {
	if len(data) == 0 {
		return PlatformMeta{}, nil
	}
	var loose struct {
		Permissions interface{}    `json:"permissions"`
		Facebook    *FacebookMeta  `json:"facebook"`
		Instagram   *InstagramMeta `json:"instagram"`
		TikTok      *TikTokMeta    `json:"tiktok"`
	}
	if err := json.Unmarshal(data, &loose); err != nil {
		return PlatformMeta{}, err
	}
	return PlatformMeta{
		Permissions: CoercePermissions(loose.Permissions),
		Facebook:    loose.Facebook,
		Instagram:   loose.Instagram,
		TikTok:      loose.TikTok,
	}, nil
}
