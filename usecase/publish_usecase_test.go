package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/infrastructure/clients/facebook"
	"social-hub/infrastructure/clients/instagram"
	"social-hub/infrastructure/realtime"
	"social-hub/usecase"
)

func newPublish(channels *MockChannelRepo, posts *MockPostRepo, notifier *MockNotifier, fb *MockFacebookAPI, ig *MockInstagramAPI) usecase.IPublishUsecase {
	return usecase.NewPublishUsecase(channels, posts, quietAudit(), notifier, realtime.NewPublishHub(), fb, ig)
}

func facebookChannel(perms []string, pages []model.ManagedPage) *model.Channel {
	return &model.Channel{
		ID: 1, OrganizationID: "o1", Platform: model.PlatformFacebook,
		ExternalID: "fb-user-7", AccessToken: "channel-tok", IsActive: true,
		Meta: model.PlatformMeta{
			Permissions: perms,
			Facebook:    &model.FacebookMeta{UserID: "fb-user-7", Pages: pages},
		},
	}
}

// Missing pages_manage_posts fails before any outbound call.
func TestPublishFacebookPermissionDenied(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(1)).
		Return(facebookChannel([]string{"public_profile"}, []model.ManagedPage{{ID: "page-1"}}), nil)

	notifier := quietNotifier()
	fb := &MockFacebookAPI{}
	u := newPublish(channels, &MockPostRepo{}, notifier, fb, &MockInstagramAPI{})

	_, err := u.Publish(context.Background(), "o1", 1, dto.PublishRequest{Caption: "hi"})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
	assert.Contains(t, err.Error(), "pages_manage_posts")
	fb.AssertNotCalled(t, "PublishToFeed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishInactiveChannel(t *testing.T) {
	channels := &MockChannelRepo{}
	ch := facebookChannel([]string{"pages_manage_posts"}, []model.ManagedPage{{ID: "page-1"}})
	ch.IsActive = false
	channels.On("GetChannel", mock.Anything, int64(1)).Return(ch, nil)

	u := newPublish(channels, &MockPostRepo{}, quietNotifier(), &MockFacebookAPI{}, &MockInstagramAPI{})
	_, err := u.Publish(context.Background(), "o1", 1, dto.PublishRequest{Caption: "hi"})
	assert.ErrorIs(t, err, model.ErrChannelInactive)
}

func TestPublishFacebookImmediate(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(1)).
		Return(facebookChannel([]string{"pages_manage_posts"}, []model.ManagedPage{{ID: "page-1", AccessToken: "page-tok"}}), nil)

	fb := &MockFacebookAPI{}
	fb.On("PublishToFeed", mock.Anything, "page-1", "page-tok", "hello", "", (*time.Time)(nil)).
		Return(&facebook.PublishResult{ID: "page_post_1", Raw: []byte(`{"id":"page_post_1"}`)}, nil)

	posts := &MockPostRepo{}
	posts.On("CreatePost", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Status == model.PostStatusPublished &&
			p.PublishedAt != nil &&
			p.ExternalPostID != nil && *p.ExternalPostID == "page_post_1"
	})).Return(&model.Post{ID: 9, Status: model.PostStatusPublished}, nil)

	notifier := &MockNotifier{}
	notifier.On("PostPublished", mock.Anything, mock.Anything).Once()

	u := newPublish(channels, posts, notifier, fb, &MockInstagramAPI{})
	post, err := u.Publish(context.Background(), "o1", 1, dto.PublishRequest{Caption: "hello"})
	assert.NoError(t, err)
	assert.Equal(t, int64(9), post.ID)
	fb.AssertExpectations(t)
	posts.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

// A future scheduledFor produces a SCHEDULED post and passes the schedule time
// through to the provider call.
func TestPublishFacebookScheduled(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(1)).
		Return(facebookChannel([]string{"pages_manage_posts"}, []model.ManagedPage{{ID: "page-1", AccessToken: "page-tok"}}), nil)

	scheduledFor := time.Now().Add(24 * time.Hour).UnixMilli()
	fb := &MockFacebookAPI{}
	fb.On("PublishToFeed", mock.Anything, "page-1", "page-tok", "later", "", mock.MatchedBy(func(at *time.Time) bool {
		return at != nil && at.UnixMilli() == scheduledFor
	})).Return(&facebook.PublishResult{ID: "page_post_2", Raw: []byte(`{"id":"page_post_2"}`)}, nil)

	posts := &MockPostRepo{}
	posts.On("CreatePost", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Status == model.PostStatusScheduled && p.ScheduledAt != nil && p.PublishedAt == nil
	})).Return(&model.Post{ID: 10, Status: model.PostStatusScheduled}, nil)

	u := newPublish(channels, posts, quietNotifier(), fb, &MockInstagramAPI{})
	post, err := u.Publish(context.Background(), "o1", 1, dto.PublishRequest{Caption: "later", ScheduledForMs: scheduledFor})
	assert.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, post.Status)
}

// A past scheduledFor publishes immediately.
func TestPublishFacebookPastScheduleIsImmediate(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(1)).
		Return(facebookChannel([]string{"pages_manage_posts"}, []model.ManagedPage{{ID: "page-1", AccessToken: "page-tok"}}), nil)

	fb := &MockFacebookAPI{}
	fb.On("PublishToFeed", mock.Anything, "page-1", "page-tok", "now", "", (*time.Time)(nil)).
		Return(&facebook.PublishResult{ID: "page_post_3"}, nil)

	posts := &MockPostRepo{}
	posts.On("CreatePost", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Status == model.PostStatusPublished
	})).Return(&model.Post{ID: 11, Status: model.PostStatusPublished}, nil)

	u := newPublish(channels, posts, quietNotifier(), fb, &MockInstagramAPI{})
	_, err := u.Publish(context.Background(), "o1", 1, dto.PublishRequest{
		Caption:        "now",
		ScheduledForMs: time.Now().Add(-time.Minute).UnixMilli(),
	})
	assert.NoError(t, err)
}

// A 2xx feed response without an id is a failed publish; nothing persists.
func TestPublishFacebookEmptyIDFails(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(1)).
		Return(facebookChannel([]string{"pages_manage_posts"}, []model.ManagedPage{{ID: "page-1", AccessToken: "page-tok"}}), nil)

	fb := &MockFacebookAPI{}
	fb.On("PublishToFeed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&facebook.PublishResult{ID: "", Raw: []byte(`{}`)}, nil)

	posts := &MockPostRepo{}
	notifier := &MockNotifier{}
	notifier.On("PostPublishFailed", mock.Anything, int64(1), model.PlatformFacebook, mock.Anything).Once()

	u := newPublish(channels, posts, notifier, fb, &MockInstagramAPI{})
	_, err := u.Publish(context.Background(), "o1", 1, dto.PublishRequest{Caption: "hi"})
	assert.ErrorIs(t, err, model.ErrPublishFailed)
	posts.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)
	notifier.AssertExpectations(t)
}

// Page token absent falls back to the channel token.
func TestPublishFacebookPageTokenFallback(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(1)).
		Return(facebookChannel([]string{"pages_manage_posts"}, []model.ManagedPage{{ID: "page-1"}}), nil)

	fb := &MockFacebookAPI{}
	fb.On("PublishToFeed", mock.Anything, "page-1", "channel-tok", "hi", "", (*time.Time)(nil)).
		Return(&facebook.PublishResult{ID: "page_post_4"}, nil)

	posts := &MockPostRepo{}
	posts.On("CreatePost", mock.Anything, mock.Anything).Return(&model.Post{ID: 12}, nil)

	u := newPublish(channels, posts, quietNotifier(), fb, &MockInstagramAPI{})
	_, err := u.Publish(context.Background(), "o1", 1, dto.PublishRequest{Caption: "hi"})
	assert.NoError(t, err)
	fb.AssertExpectations(t)
}

func instagramChannel(perms []string, businessID string) *model.Channel {
	return &model.Channel{
		ID: 2, OrganizationID: "o1", Platform: model.PlatformInstagram,
		ExternalID: "ig-42", AccessToken: "ig-tok", IsActive: true,
		Meta: model.PlatformMeta{
			Permissions: perms,
			Instagram:   &model.InstagramMeta{UserID: "u1", BusinessAccountID: businessID},
		},
	}
}

// No supplied image substitutes the placeholder into the container payload.
func TestPublishInstagramPlaceholderImage(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(2)).
		Return(instagramChannel([]string{"instagram_basic", "instagram_content_publish"}, "ig-42"), nil)

	ig := &MockInstagramAPI{}
	ig.On("CreateMediaContainer", mock.Anything, "ig-42", "ig-tok", instagram.PlaceholderImageURL, "caption only").
		Return("container-1", []byte(`{"id":"container-1"}`), nil)
	ig.On("PublishMedia", mock.Anything, "ig-42", "ig-tok", "container-1").
		Return("media-9", []byte(`{"id":"media-9"}`), nil)

	posts := &MockPostRepo{}
	posts.On("CreatePost", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.ExternalPostID != nil && *p.ExternalPostID == "media-9"
	})).Return(&model.Post{ID: 13, Status: model.PostStatusPublished}, nil)

	u := newPublish(channels, posts, quietNotifier(), &MockFacebookAPI{}, ig)
	_, err := u.Publish(context.Background(), "o1", 2, dto.PublishRequest{Caption: "caption only"})
	assert.NoError(t, err)
	ig.AssertExpectations(t)
}

func TestPublishInstagramMissingBusinessAccount(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(2)).
		Return(instagramChannel([]string{"instagram_basic", "instagram_content_publish"}, ""), nil)

	ig := &MockInstagramAPI{}
	u := newPublish(channels, &MockPostRepo{}, quietNotifier(), &MockFacebookAPI{}, ig)
	_, err := u.Publish(context.Background(), "o1", 2, dto.PublishRequest{Caption: "hi"})
	assert.ErrorIs(t, err, model.ErrMissingBusinessAccount)
	ig.AssertNotCalled(t, "CreateMediaContainer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishInstagramPermissionDenied(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(2)).
		Return(instagramChannel([]string{"instagram_basic"}, "ig-42"), nil)

	u := newPublish(channels, &MockPostRepo{}, quietNotifier(), &MockFacebookAPI{}, &MockInstagramAPI{})
	_, err := u.Publish(context.Background(), "o1", 2, dto.PublishRequest{Caption: "hi"})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
}

func TestPublishInstagramContainerWithoutID(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(2)).
		Return(instagramChannel([]string{"instagram_basic", "instagram_content_publish"}, "ig-42"), nil)

	ig := &MockInstagramAPI{}
	ig.On("CreateMediaContainer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", []byte(`{}`), nil)

	u := newPublish(channels, &MockPostRepo{}, quietNotifier(), &MockFacebookAPI{}, ig)
	_, err := u.Publish(context.Background(), "o1", 2, dto.PublishRequest{Caption: "hi"})
	assert.ErrorIs(t, err, model.ErrPublishFailed)
	ig.AssertNotCalled(t, "PublishMedia", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishTikTokUnsupported(t *testing.T) {
	channels := &MockChannelRepo{}
	channels.On("GetChannel", mock.Anything, int64(3)).
		Return(&model.Channel{ID: 3, OrganizationID: "o1", Platform: model.PlatformTikTok, IsActive: true}, nil)

	u := newPublish(channels, &MockPostRepo{}, quietNotifier(), &MockFacebookAPI{}, &MockInstagramAPI{})
	_, err := u.Publish(context.Background(), "o1", 3, dto.PublishRequest{Caption: "hi"})
	assert.ErrorIs(t, err, model.ErrUnsupportedPlatform)
}
