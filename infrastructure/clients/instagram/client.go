package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"social-hub/domain/model"
	"social-hub/infrastructure/configuration"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// PlaceholderImageURL substitutes for missing images on publish: the provider
// rejects text-only media containers outright.
const PlaceholderImageURL = "https://placehold.co/1080x1080/png?text=Social+Hub"

// Client talks to the Instagram Graph API (hosted on the Facebook Graph
// domain for business accounts).
type Client struct {
	BaseURL      string
	HTTP         *http.Client
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

func NewClient(cfg configuration.OAuthClient) *Client {
	return &Client{
		BaseURL:      defaultBaseURL,
		HTTP:         &http.Client{Timeout: 15 * time.Second},
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
	}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UserInfo struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	FollowersCount    int64  `json:"followers_count"`
	BusinessAccountID string `json:"-"`
}

// Media is one recent media item with inline counts.
type Media struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	Permalink     string    `json:"permalink"`
	Timestamp     time.Time `json:"-"`
	LikeCount     int64     `json:"like_count"`
	CommentsCount int64     `json:"comments_count"`
}

// ExchangeCode swaps the authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.RedirectURI)
	form.Set("code", code)
	body, err := c.postForm(ctx, "/oauth/access_token", form, "exchange_code")
	if err != nil {
		return nil, err
	}
	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, c.wrap("exchange_code", err)
	}
	return &tok, nil
}

// Me resolves the authenticated identity plus the linked Instagram business
// account id, which the two-step publish protocol requires.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserInfo, error) {
	q := url.Values{}
	q.Set("fields", "id,name,accounts{instagram_business_account,name}")
	q.Set("access_token", accessToken)
	body, err := c.get(ctx, "/me?"+q.Encode(), "me")
	if err != nil {
		return nil, err
	}
	var resp struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Accounts struct {
			Data []struct {
				InstagramBusinessAccount struct {
					ID string `json:"id"`
				} `json:"instagram_business_account"`
			} `json:"data"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrap("me", err)
	}
	info := &UserInfo{ID: resp.ID, Name: resp.Name}
	for _, acc := range resp.Accounts.Data {
		if acc.InstagramBusinessAccount.ID != "" {
			info.BusinessAccountID = acc.InstagramBusinessAccount.ID
			break
		}
	}
	return info, nil
}

// Profile fetches username and follower count for a business account.
func (c *Client) Profile(ctx context.Context, igUserID, accessToken string) (*UserInfo, error) {
	q := url.Values{}
	q.Set("fields", "id,username,name,followers_count")
	q.Set("access_token", accessToken)
	body, err := c.get(ctx, "/"+url.PathEscape(igUserID)+"?"+q.Encode(), "profile")
	if err != nil {
		return nil, err
	}
	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, c.wrap("profile", err)
	}
	return &info, nil
}

type mediaParams struct {
	Fields      string `url:"fields"`
	Limit       int    `url:"limit"`
	Since       int64  `url:"since"`
	AccessToken string `url:"access_token"`
}

// RecentMedia lists recent media items filtered to the window.
func (c *Client) RecentMedia(ctx context.Context, igUserID, accessToken string, since time.Time, limit int) ([]Media, error) {
	p := mediaParams{
		Fields:      "id,caption,timestamp,permalink,like_count,comments_count",
		Limit:       limit,
		Since:       since.Unix(),
		AccessToken: accessToken,
	}
	v, _ := query.Values(p)
	body, err := c.get(ctx, "/"+url.PathEscape(igUserID)+"/media?"+v.Encode(), "recent_media")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []struct {
			ID            string `json:"id"`
			Caption       string `json:"caption"`
			Timestamp     string `json:"timestamp"`
			Permalink     string `json:"permalink"`
			LikeCount     int64  `json:"like_count"`
			CommentsCount int64  `json:"comments_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrap("recent_media", err)
	}
	media := make([]Media, 0, len(resp.Data))
	for _, item := range resp.Data {
		ts, _ := time.Parse("2006-01-02T15:04:05-0700", item.Timestamp)
		media = append(media, Media{
			ID:            item.ID,
			Caption:       item.Caption,
			Permalink:     item.Permalink,
			Timestamp:     ts,
			LikeCount:     item.LikeCount,
			CommentsCount: item.CommentsCount,
		})
	}
	return media, nil
}

// MediaInsights fetches impressions, reach and saved for one media item.
func (c *Client) MediaInsights(ctx context.Context, mediaID, accessToken string) (impressions, reach, saved int64, err error) {
	q := url.Values{}
	q.Set("metric", "impressions,reach,saved")
	q.Set("access_token", accessToken)
	body, err := c.get(ctx, "/"+url.PathEscape(mediaID)+"/insights?"+q.Encode(), "media_insights")
	if err != nil {
		return 0, 0, 0, err
	}
	var resp struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value json.Number `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, 0, c.wrap("media_insights", err)
	}
	for _, metric := range resp.Data {
		var total int64
		for _, v := range metric.Values {
			n, _ := v.Value.Int64()
			total += n
		}
		switch metric.Name {
		case "impressions":
			impressions = total
		case "reach":
			reach = total
		case "saved":
			saved = total
		}
	}
	return impressions, reach, saved, nil
}

// AccountInsights sums account-level impressions and reach over the window.
func (c *Client) AccountInsights(ctx context.Context, igUserID, accessToken string, since, until time.Time) (impressions, reach int64, err error) {
	q := url.Values{}
	q.Set("metric", "impressions,reach")
	q.Set("period", "day")
	q.Set("since", itoa(since.Unix()))
	q.Set("until", itoa(until.Unix()))
	q.Set("access_token", accessToken)
	body, err := c.get(ctx, "/"+url.PathEscape(igUserID)+"/insights?"+q.Encode(), "account_insights")
	if err != nil {
		return 0, 0, err
	}
	var resp struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value json.Number `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, c.wrap("account_insights", err)
	}
	for _, metric := range resp.Data {
		var total int64
		for _, v := range metric.Values {
			n, _ := v.Value.Int64()
			total += n
		}
		switch metric.Name {
		case "impressions":
			impressions = total
		case "reach":
			reach = total
		}
	}
	return impressions, reach, nil
}

// CreateMediaContainer stages a media object (step one of the two-step
// publish). The returned container id feeds PublishMedia.
func (c *Client) CreateMediaContainer(ctx context.Context, igUserID, accessToken, imageURL, caption string) (string, []byte, error) {
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	form.Set("access_token", accessToken)
	body, err := c.postForm(ctx, "/"+url.PathEscape(igUserID)+"/media", form, "create_container")
	if err != nil {
		return "", nil, err
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.ID, body, nil
}

// PublishMedia publishes a previously created container (step two).
func (c *Client) PublishMedia(ctx context.Context, igUserID, accessToken, containerID string) (string, []byte, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", accessToken)
	body, err := c.postForm(ctx, "/"+url.PathEscape(igUserID)+"/media_publish", form, "media_publish")
	if err != nil {
		return "", nil, err
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.ID, body, nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func (c *Client) get(ctx context.Context, path, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, c.wrap(op, err)
	}
	return c.do(req, op)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, c.wrap(op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, op)
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
			Platform: model.PlatformInstagram, Operation: op,
			StatusCode: resp.StatusCode, Body: string(body),
		}
	}
	return body, nil
}

func (c *Client) wrap(op string, err error) error {
	return &model.ProviderError{
		Platform: model.PlatformInstagram, Operation: op,
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
