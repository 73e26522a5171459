package tiktok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"social-hub/domain/model"
	"social-hub/infrastructure/configuration"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(configuration.OAuthClient{
		ClientID:     "key-123",
		ClientSecret: "secret-456",
		RedirectURI:  "https://hub.example.com/auth/tiktok/callback",
		Scopes:       []string{"user.info.basic", "video.list"},
	})
	c.APIBaseURL = srv.URL
	c.HTTP = srv.Client()
	return c, srv
}

func TestAuthURLUsesClientKey(t *testing.T) {
	c := NewClient(configuration.OAuthClient{
		ClientID:    "key-123",
		RedirectURI: "https://hub.example.com/auth/tiktok/callback",
		Scopes:      []string{"user.info.basic", "video.list"},
	})

	raw := c.AuthURL("signed-state")
	u, err := url.Parse(raw)
	assert.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "key-123", q.Get("client_key"))
	assert.Empty(t, q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "user.info.basic,video.list", q.Get("scope"))
	assert.Equal(t, "signed-state", q.Get("state"))
}

func TestExchangeCodeSendsClientKey(t *testing.T) {
	var gotForm url.Values
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"access_token":"act-1","refresh_token":"ref-1","expires_in":86400,"open_id":"open-9"}`))
	}))
	defer srv.Close()

	tok, err := c.ExchangeCode(context.Background(), "auth-code")
	assert.NoError(t, err)
	assert.Equal(t, "act-1", tok.AccessToken)
	assert.Equal(t, "ref-1", tok.RefreshToken)
	assert.Equal(t, "open-9", tok.OpenID)
	assert.Equal(t, "key-123", gotForm.Get("client_key"))
	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
}

func TestRefreshToken(t *testing.T) {
	var gotForm url.Values
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"access_token":"act-2","refresh_token":"ref-2","expires_in":86400}`))
	}))
	defer srv.Close()

	tok, err := c.RefreshToken(context.Background(), "ref-1")
	assert.NoError(t, err)
	assert.Equal(t, "act-2", tok.AccessToken)
	assert.Equal(t, "refresh_token", gotForm.Get("grant_type"))
	assert.Equal(t, "ref-1", gotForm.Get("refresh_token"))
}

func TestTokenErrorInside200Body(t *testing.T) {
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token is invalid or expired."}`))
	}))
	defer srv.Close()

	_, err := c.RefreshToken(context.Background(), "stale")
	assert.Error(t, err)
	pe, ok := model.AsProviderError(err)
	assert.True(t, ok)
	assert.Equal(t, model.PlatformTikTok, pe.Platform)
	assert.Contains(t, pe.Body, "invalid_grant")
}

func TestListVideosPaginates(t *testing.T) {
	calls := 0
	c, srv := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		if calls == 1 {
			w.Write([]byte(`{"data":{"videos":[{"id":"v1","view_count":10},{"id":"v2","view_count":20}],"cursor":1700000000,"has_more":true}}`))
			return
		}
		w.Write([]byte(`{"data":{"videos":[{"id":"v3","view_count":30}],"has_more":false}}`))
	}))
	defer srv.Close()

	videos, err := c.ListVideos(context.Background(), "act-1", 50)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, videos, 3)
	assert.Equal(t, "v3", videos[2].ID)
}
