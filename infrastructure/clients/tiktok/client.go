package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-hub/domain/model"
	"social-hub/infrastructure/configuration"
)

const (
	defaultAuthBaseURL = "https://www.tiktok.com/v2"
	defaultAPIBaseURL  = "https://open.tiktokapis.com/v2"
)

// Client talks to the TikTok open API. TikTok deviates from standard OAuth2
// naming (client_key instead of client_id), so the token flow is implemented
// directly rather than through the oauth2 package.
type Client struct {
	AuthBaseURL  string
	APIBaseURL   string
	HTTP         *http.Client
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

func NewClient(cfg configuration.OAuthClient) *Client {
	return &Client{
		AuthBaseURL:  defaultAuthBaseURL,
		APIBaseURL:   defaultAPIBaseURL,
		HTTP:         &http.Client{Timeout: 15 * time.Second},
		ClientKey:    cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
	}
}

type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	OpenID           string `json:"open_id"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type UserInfo struct {
	OpenID         string `json:"open_id"`
	DisplayName    string `json:"display_name"`
	AvatarURL      string `json:"avatar_url"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	LikesCount     int64  `json:"likes_count"`
	VideoCount     int64  `json:"video_count"`
}

type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CreateTime   int64  `json:"create_time"`
	ShareURL     string `json:"share_url"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	ShareCount   int64  `json:"share_count"`
}

// AuthURL builds the user-facing authorization URL with the signed state.
func (c *Client) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_key", c.ClientKey)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(c.Scopes, ","))
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("state", state)
	return c.AuthBaseURL + "/auth/authorize/?" + q.Encode()
}

// ExchangeCode swaps the authorization code for access and refresh tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", c.ClientKey)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)
	return c.token(ctx, form, "exchange_code")
}

// RefreshToken trades a refresh token for a fresh access token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", c.ClientKey)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.token(ctx, form, "refresh_token")
}

func (c *Client) token(ctx context.Context, form url.Values, op string) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, c.wrap(op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := c.do(req, op)
	if err != nil {
		return nil, err
	}
	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, c.wrap(op, err)
	}
	// TikTok reports token errors inside a 200 body.
	if tok.Error != "" || tok.AccessToken == "" {
		return nil, &model.ProviderError{
			Platform: model.PlatformTikTok, Operation: op,
			StatusCode: http.StatusOK, Body: string(body),
		}
	}
	return &tok, nil
}

// UserInfo fetches the authenticated user's profile and counters.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	q := url.Values{}
	q.Set("fields", "open_id,display_name,avatar_url,follower_count,following_count,likes_count,video_count")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/user/info/?"+q.Encode(), nil)
	if err != nil {
		return nil, c.wrap("user_info", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	body, err := c.do(req, "user_info")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data struct {
			User UserInfo `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrap("user_info", err)
	}
	return &resp.Data.User, nil
}

// ListVideos pages through the user's videos, newest first, up to max items.
func (c *Client) ListVideos(ctx context.Context, accessToken string, max int) ([]Video, error) {
	q := url.Values{}
	q.Set("fields", "id,title,create_time,share_url,view_count,like_count,comment_count,share_count")

	var videos []Video
	cursor := int64(0)
	for len(videos) < max {
		payload := map[string]interface{}{"max_count": 20}
		if cursor > 0 {
			payload["cursor"] = cursor
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, c.wrap("video_list", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/video/list/?"+q.Encode(), strings.NewReader(string(raw)))
		if err != nil {
			return nil, c.wrap("video_list", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Content-Type", "application/json")
		body, err := c.do(req, "video_list")
		if err != nil {
			return nil, err
		}
		var resp struct {
			Data struct {
				Videos  []Video `json:"videos"`
				Cursor  int64   `json:"cursor"`
				HasMore bool    `json:"has_more"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, c.wrap("video_list", err)
		}
		videos = append(videos, resp.Data.Videos...)
		if !resp.Data.HasMore {
			break
		}
		cursor = resp.Data.Cursor
	}
	if len(videos) > max {
		videos = videos[:max]
	}
	return videos, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, c.wrap(op, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.ProviderError{
			Platform: model.PlatformTikTok, Operation: op,
			StatusCode: resp.StatusCode, Body: string(body),
		}
	}
	return body, nil
}

func (c *Client) wrap(op string, err error) error {
	return &model.ProviderError{
		Platform: model.PlatformTikTok, Operation: op,
		Timeout: isTimeout(err), Err: err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
