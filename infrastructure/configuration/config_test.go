package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlatformConfig_EnvOverride(t *testing.T) {
	t.Setenv("FACEBOOK_CLIENT_ID", "fb-id-from-env")
	t.Setenv("FACEBOOK_CLIENT_SECRET", "fb-secret-from-env")

	cfg := GetPlatformConfig("facebook")
	assert.Equal(t, "fb-id-from-env", cfg.ClientID)
	assert.Equal(t, "fb-secret-from-env", cfg.ClientSecret)
	assert.NotEmpty(t, cfg.RedirectURI)
	assert.Contains(t, cfg.Scopes, "pages_manage_posts")
}

func TestGetPlatformConfig_UnknownPlatform(t *testing.T) {
	cfg := GetPlatformConfig("myspace")
	assert.Empty(t, cfg.ClientID)
	assert.Empty(t, cfg.Scopes)
}

func TestGetPlatformConfig_DefaultScopes(t *testing.T) {
	tiktok := GetPlatformConfig("tiktok")
	require.NotEmpty(t, tiktok.Scopes)
	assert.Contains(t, tiktok.Scopes, "video.publish")

	instagram := GetPlatformConfig("instagram")
	assert.Contains(t, instagram.Scopes, "instagram_content_publish")
}
