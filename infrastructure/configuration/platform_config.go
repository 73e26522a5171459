package configuration

import (
	"fmt"
	"os"
	"strings"
)

// GetPlatformConfig returns OAuth client settings for one platform from the
// JSON config with environment variable fallback (FACEBOOK_CLIENT_ID etc.).
// Credentials may still be empty; callers decide whether that is fatal.
func GetPlatformConfig(platform string) OAuthClient {
	platform = strings.ToLower(platform)
	var base OAuthClient
	switch platform {
	case "facebook":
		base = C.OAuth.Facebook
	case "instagram":
		base = C.OAuth.Instagram
	case "tiktok":
		base = C.OAuth.TikTok
	default:
		return OAuthClient{}
	}

	prefix := strings.ToUpper(platform)
	defaultRedirect := fmt.Sprintf("%s/auth/%s/callback", C.App.BaseURL, platform)
	out := OAuthClient{
		ClientID:     getConfigValue(base.ClientID, prefix+"_CLIENT_ID", ""),
		ClientSecret: getConfigValue(base.ClientSecret, prefix+"_CLIENT_SECRET", ""),
		RedirectURI:  getConfigValue(base.RedirectURI, prefix+"_REDIRECT_URI", defaultRedirect),
		Scopes:       base.Scopes,
		PageNameHint: getConfigValue(base.PageNameHint, prefix+"_PAGE_NAME_HINT", ""),
	}
	if len(out.Scopes) == 0 {
		out.Scopes = defaultScopes(platform)
	}
	return out
}

func defaultScopes(platform string) []string {
	switch platform {
	case "facebook":
		return []string{
			"public_profile", "pages_show_list", "pages_read_engagement",
			"pages_manage_posts", "read_insights",
		}
	case "instagram":
		return []string{"instagram_basic", "instagram_content_publish", "instagram_manage_insights"}
	case "tiktok":
		return []string{"user.info.basic", "video.list", "video.publish"}
	}
	return nil
}

// getConfigValue gets value from environment first, then config, then default.
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
