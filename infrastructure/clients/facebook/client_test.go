package facebook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"social-hub/domain/model"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := &Client{
		BaseURL:      srv.URL,
		HTTP:         srv.Client(),
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		RedirectURI:  "https://hub.example.com/auth/facebook/callback",
	}
	return c, srv
}

func TestExchangeCode(t *testing.T) {
	var gotQuery url.Values
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":5183944}`))
	}))
	defer srv.Close()

	tok, err := c.ExchangeCode(context.Background(), "auth-code")
	assert.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)
	assert.Equal(t, int64(5183944), tok.ExpiresIn)
	assert.Equal(t, "auth-code", gotQuery.Get("code"))
	assert.Equal(t, "app-id", gotQuery.Get("client_id"))
	assert.Equal(t, c.RedirectURI, gotQuery.Get("redirect_uri"))
}

func TestGrantedPermissionsFiltersDeclined(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"permission":"pages_show_list","status":"granted"},
			{"permission":"pages_manage_posts","status":"declined"},
			{"permission":"read_insights","status":"granted"}
		]}`))
	}))
	defer srv.Close()

	granted, err := c.GrantedPermissions(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, []string{"pages_show_list", "read_insights"}, granted)
}

func TestPublishToFeedScheduled(t *testing.T) {
	var gotForm url.Values
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"page_post_1"}`))
	}))
	defer srv.Close()

	at := time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC)
	res, err := c.PublishToFeed(context.Background(), "page-1", "page-tok", "hello", "", &at)
	assert.NoError(t, err)
	assert.Equal(t, "page_post_1", res.ID)
	assert.Equal(t, "false", gotForm.Get("published"))
	assert.Equal(t, "1789468200", gotForm.Get("scheduled_publish_time"))
	assert.Equal(t, "page-tok", gotForm.Get("access_token"))
}

func TestPublishToFeedImmediate(t *testing.T) {
	var gotForm url.Values
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"page_post_2"}`))
	}))
	defer srv.Close()

	res, err := c.PublishToFeed(context.Background(), "page-1", "page-tok", "hello", "https://example.com", nil)
	assert.NoError(t, err)
	assert.Equal(t, "page_post_2", res.ID)
	assert.Equal(t, "true", gotForm.Get("published"))
	assert.Empty(t, gotForm.Get("scheduled_publish_time"))
	assert.Equal(t, "https://example.com", gotForm.Get("link"))
}

func TestPublishToFeedEmptyIDSurvivesToCaller(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	res, err := c.PublishToFeed(context.Background(), "page-1", "tok", "m", "", nil)
	assert.NoError(t, err)
	assert.Empty(t, res.ID)
}

func TestNon2xxBecomesProviderError(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"(#200) insufficient permission"}}`))
	}))
	defer srv.Close()

	_, err := c.Me(context.Background(), "tok")
	assert.Error(t, err)
	pe, ok := model.AsProviderError(err)
	assert.True(t, ok)
	assert.Equal(t, model.PlatformFacebook, pe.Platform)
	assert.Equal(t, http.StatusForbidden, pe.StatusCode)
	assert.Contains(t, pe.Body, "insufficient permission")
}

func TestTimeoutClassified(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Me(ctx, "tok")
	assert.Error(t, err)
	pe, ok := model.AsProviderError(err)
	assert.True(t, ok)
	assert.True(t, pe.Timeout)
}

func TestSubscribePageSendsFields(t *testing.T) {
	var gotForm url.Values
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	err := c.SubscribePage(context.Background(), "page-1", "page-tok", model.SubscriptionFields)
	assert.NoError(t, err)
	assert.Equal(t, "feed,insights,engagement,messages,messaging_postbacks,page_changes", gotForm.Get("subscribed_fields"))
}

func TestSubscribePageFalseSuccessIsError(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	err := c.SubscribePage(context.Background(), "page-1", "page-tok", model.SubscriptionFields)
	assert.Error(t, err)
}
