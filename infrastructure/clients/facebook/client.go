package facebook

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

// Client talks to the Facebook Graph API. Every call takes a context and runs
// against a bounded-timeout HTTP client; non-2xx responses surface as
// *model.ProviderError carrying status and body.
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
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PagePost is one feed item with inline engagement summaries.
type PagePost struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	PermalinkURL string    `json:"permalink_url"`
	CreatedTime  time.Time `json:"-"`
	Reactions    int64     `json:"-"`
	Comments     int64     `json:"-"`
	Shares       int64     `json:"-"`
}

// ExchangeCode swaps an authorization code for a user access token. The
// redirect URI must match the one used at initiation byte for byte.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	q := url.Values{}
	q.Set("client_id", c.ClientID)
	q.Set("client_secret", c.ClientSecret)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("code", code)
	body, err := c.get(ctx, "/oauth/access_token?"+q.Encode(), "exchange_code")
	if err != nil {
		return nil, err
	}
	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, c.wrap("exchange_code", err)
	}
	return &tok, nil
}

// Me fetches the authenticated user's identity.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserInfo, error) {
	body, err := c.get(ctx, "/me?fields=id,name&access_token="+url.QueryEscape(accessToken), "me")
	if err != nil {
		return nil, err
	}
	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, c.wrap("me", err)
	}
	return &info, nil
}

// MyPages lists the pages the user administers, page tokens included.
func (c *Client) MyPages(ctx context.Context, accessToken string) ([]model.ManagedPage, error) {
	body, err := c.get(ctx, "/me/accounts?access_token="+url.QueryEscape(accessToken), "my_pages")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []model.ManagedPage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrap("my_pages", err)
	}
	return resp.Data, nil
}

// GrantedPermissions returns the scopes the user actually granted; requested
// and granted scope sets routinely differ.
func (c *Client) GrantedPermissions(ctx context.Context, accessToken string) ([]string, error) {
	body, err := c.get(ctx, "/me/permissions?access_token="+url.QueryEscape(accessToken), "permissions")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []struct {
			Permission string `json:"permission"`
			Status     string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrap("permissions", err)
	}
	var granted []string
	for _, p := range resp.Data {
		if p.Status == "granted" {
			granted = append(granted, p.Permission)
		}
	}
	return granted, nil
}

// PageProfile returns display name and follower count for a page.
func (c *Client) PageProfile(ctx context.Context, pageID, accessToken string) (name string, followers int64, err error) {
	body, err := c.get(ctx, "/"+url.PathEscape(pageID)+"?fields=name,followers_count&access_token="+url.QueryEscape(accessToken), "page_profile")
	if err != nil {
		return "", 0, err
	}
	var resp struct {
		Name           string `json:"name"`
		FollowersCount int64  `json:"followers_count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", 0, c.wrap("page_profile", err)
	}
	return resp.Name, resp.FollowersCount, nil
}

type insightsParams struct {
	Metric      string `url:"metric"`
	Period      string `url:"period"`
	Since       int64  `url:"since"`
	Until       int64  `url:"until"`
	AccessToken string `url:"access_token"`
}

// AccountInsights sums page_impressions and page_impressions_unique over the
// window. Callers treat failures as zero values.
func (c *Client) AccountInsights(ctx context.Context, pageID, accessToken string, since, until time.Time) (impressions, reach int64, err error) {
	p := insightsParams{
		Metric:      "page_impressions,page_impressions_unique",
		Period:      "day",
		Since:       since.Unix(),
		Until:       until.Unix(),
		AccessToken: accessToken,
	}
	v, _ := query.Values(p)
	body, err := c.get(ctx, "/"+url.PathEscape(pageID)+"/insights?"+v.Encode(), "account_insights")
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
		case "page_impressions":
			impressions = total
		case "page_impressions_unique":
			reach = total
		}
	}
	return impressions, reach, nil
}

type pagePostsParams struct {
	Fields      string `url:"fields"`
	Since       int64  `url:"since"`
	Until       int64  `url:"until"`
	Limit       int    `url:"limit"`
	AccessToken string `url:"access_token"`
}

// PagePosts lists recent feed items with inline reaction/comment/share
// summaries, bounded by limit and the date window.
func (c *Client) PagePosts(ctx context.Context, pageID, accessToken string, since, until time.Time, limit int) ([]PagePost, error) {
	p := pagePostsParams{
		Fields:      "id,message,created_time,permalink_url,shares,reactions.summary(true),comments.summary(true)",
		Since:       since.Unix(),
		Until:       until.Unix(),
		Limit:       limit,
		AccessToken: accessToken,
	}
	v, _ := query.Values(p)
	body, err := c.get(ctx, "/"+url.PathEscape(pageID)+"/posts?"+v.Encode(), "page_posts")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []struct {
			ID           string `json:"id"`
			Message      string `json:"message"`
			CreatedTime  string `json:"created_time"`
			PermalinkURL string `json:"permalink_url"`
			Shares       struct {
				Count int64 `json:"count"`
			} `json:"shares"`
			Reactions struct {
				Summary struct {
					TotalCount int64 `json:"total_count"`
				} `json:"summary"`
			} `json:"reactions"`
			Comments struct {
				Summary struct {
					TotalCount int64 `json:"total_count"`
				} `json:"summary"`
			} `json:"comments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrap("page_posts", err)
	}
	posts := make([]PagePost, 0, len(resp.Data))
	for _, item := range resp.Data {
		created, _ := time.Parse("2006-01-02T15:04:05-0700", item.CreatedTime)
		posts = append(posts, PagePost{
			ID:           item.ID,
			Message:      item.Message,
			PermalinkURL: item.PermalinkURL,
			CreatedTime:  created,
			Reactions:    item.Reactions.Summary.TotalCount,
			Comments:     item.Comments.Summary.TotalCount,
			Shares:       item.Shares.Count,
		})
	}
	return posts, nil
}

// PostInsights fetches per-item impressions and reach. Best-effort at the
// call site: a failure degrades that item's metrics to zero.
func (c *Client) PostInsights(ctx context.Context, postID, accessToken string) (impressions, reach int64, err error) {
	q := url.Values{}
	q.Set("metric", "post_impressions,post_impressions_unique")
	q.Set("access_token", accessToken)
	body, err := c.get(ctx, "/"+url.PathEscape(postID)+"/insights?"+q.Encode(), "post_insights")
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
		return 0, 0, c.wrap("post_insights", err)
	}
	for _, metric := range resp.Data {
		var total int64
		for _, v := range metric.Values {
			n, _ := v.Value.Int64()
			total += n
		}
		switch metric.Name {
		case "post_impressions":
			impressions = total
		case "post_impressions_unique":
			reach = total
		}
	}
	return impressions, reach, nil
}

// PublishResult carries the provider's acknowledgment. ID may be empty on a
// 2xx response; callers must treat that as a failed publish.
type PublishResult struct {
	ID  string
	Raw []byte
}

// PublishToFeed posts to a page's feed with the page's own token. When
// scheduledAt is non-nil the post is created unpublished with
// scheduled_publish_time set to whole epoch seconds.
func (c *Client) PublishToFeed(ctx context.Context, pageID, pageToken, message, link string, scheduledAt *time.Time) (*PublishResult, error) {
	form := url.Values{}
	form.Set("message", message)
	if link != "" {
		form.Set("link", link)
	}
	form.Set("access_token", pageToken)
	if scheduledAt != nil {
		form.Set("published", "false")
		form.Set("scheduled_publish_time", strconv.FormatInt(scheduledAt.Unix(), 10))
	} else {
		form.Set("published", "true")
	}
	body, err := c.postForm(ctx, "/"+url.PathEscape(pageID)+"/feed", form, "publish_feed")
	if err != nil {
		return nil, err
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	return &PublishResult{ID: resp.ID, Raw: body}, nil
}

// SubscribePage registers the app on the page's subscribed-apps edge with the
// fixed field list.
func (c *Client) SubscribePage(ctx context.Context, pageID, pageToken string, fields []string) error {
	form := url.Values{}
	form.Set("subscribed_fields", strings.Join(fields, ","))
	form.Set("access_token", pageToken)
	body, err := c.postForm(ctx, "/"+url.PathEscape(pageID)+"/subscribed_apps", form, "subscribe_page")
	if err != nil {
		return err
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || !resp.Success {
		return &model.ProviderError{
			Platform: model.PlatformFacebook, Operation: "subscribe_page",
			StatusCode: http.StatusOK, Body: string(body),
		}
	}
	return nil
}

// UnsubscribePage removes the app from the page's subscribed-apps edge.
func (c *Client) UnsubscribePage(ctx context.Context, pageID, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.BaseURL+"/"+url.PathEscape(pageID)+"/subscribed_apps?access_token="+url.QueryEscape(accessToken), nil)
	if err != nil {
		return c.wrap("unsubscribe_page", err)
	}
	_, err = c.do(req, "unsubscribe_page")
	return err
}

// PageSubscriptions derives subscription status from the provider; nothing is
// stored locally as source of truth.
func (c *Client) PageSubscriptions(ctx context.Context, pageID, accessToken string) ([]model.WebhookSubscription, error) {
	body, err := c.get(ctx, "/"+url.PathEscape(pageID)+"/subscribed_apps?access_token="+url.QueryEscape(accessToken), "page_subscriptions")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []struct {
			ID               string   `json:"id"`
			SubscribedFields []string `json:"subscribed_fields"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.wrap("page_subscriptions", err)
	}
	subs := make([]model.WebhookSubscription, 0, len(resp.Data))
	for _, d := range resp.Data {
		subs = append(subs, model.WebhookSubscription{PageID: pageID, Fields: d.SubscribedFields})
	}
	return subs, nil
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
			Platform: model.PlatformFacebook, Operation: op,
			StatusCode: resp.StatusCode, Body: string(body),
		}
	}
	return body, nil
}

func (c *Client) wrap(op string, err error) error {
	return &model.ProviderError{
		Platform: model.PlatformFacebook, Operation: op,
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
