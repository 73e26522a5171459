package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/clients/facebook"
	"social-hub/infrastructure/clients/instagram"
	"social-hub/infrastructure/clients/tiktok"
)

// Mock implementations shared across usecase tests.

type MockChannelRepo struct {
	mock.Mock
}

func (m *MockChannelRepo) UpsertChannel(ctx context.Context, up repository.ChannelUpsert) (*model.Channel, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockChannelRepo) GetChannel(ctx context.Context, id int64) (*model.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockChannelRepo) GetChannelsByOrganization(ctx context.Context, organizationID string) ([]*model.Channel, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Channel), args.Error(1)
}

func (m *MockChannelRepo) GetActiveChannels(ctx context.Context) ([]*model.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Channel), args.Error(1)
}

func (m *MockChannelRepo) DeactivateChannel(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChannelRepo) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *int64) error {
	args := m.Called(ctx, id, accessToken, refreshToken, expiresAt)
	return args.Error(0)
}

type MockPostRepo struct {
	mock.Mock
}

func (m *MockPostRepo) CreatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	args := m.Called(ctx, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepo) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepo) GetRecentPublished(ctx context.Context, organizationID string, limit int) ([]*model.Post, error) {
	args := m.Called(ctx, organizationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostRepo) CreatePostMetric(ctx context.Context, metric *model.PostMetric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

func (m *MockPostRepo) GetPostMetrics(ctx context.Context, postID int64, limit int) ([]*model.PostMetric, error) {
	args := m.Called(ctx, postID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PostMetric), args.Error(1)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) RecordProviderResponse(ctx context.Context, kind, platform, externalID string, payload []byte) error {
	args := m.Called(ctx, kind, platform, externalID, payload)
	return args.Error(0)
}

func (m *MockAudit) RecordWebhookDelivery(ctx context.Context, platform string, payload []byte) error {
	args := m.Called(ctx, platform, payload)
	return args.Error(0)
}

// quietAudit accepts everything; most tests do not care about audit calls.
func quietAudit() *MockAudit {
	a := &MockAudit{}
	a.On("RecordProviderResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	a.On("RecordWebhookDelivery", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return a
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ChannelConnected(ctx context.Context, ch *model.Channel) {
	m.Called(ctx, ch)
}

func (m *MockNotifier) PostPublished(ctx context.Context, post *model.Post) {
	m.Called(ctx, post)
}

func (m *MockNotifier) PostPublishFailed(ctx context.Context, channelID int64, platform model.Platform, reason string) {
	m.Called(ctx, channelID, platform, reason)
}

func (m *MockNotifier) MetricsHighlight(ctx context.Context, channelID int64, platform model.Platform, engagementRate float64) {
	m.Called(ctx, channelID, platform, engagementRate)
}

func quietNotifier() *MockNotifier {
	n := &MockNotifier{}
	n.On("ChannelConnected", mock.Anything, mock.Anything).Maybe()
	n.On("PostPublished", mock.Anything, mock.Anything).Maybe()
	n.On("PostPublishFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	n.On("MetricsHighlight", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	return n
}

type MockFacebookAPI struct {
	mock.Mock
}

func (m *MockFacebookAPI) ExchangeCode(ctx context.Context, code string) (*facebook.TokenResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*facebook.TokenResponse), args.Error(1)
}

func (m *MockFacebookAPI) Me(ctx context.Context, accessToken string) (*facebook.UserInfo, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*facebook.UserInfo), args.Error(1)
}

func (m *MockFacebookAPI) MyPages(ctx context.Context, accessToken string) ([]model.ManagedPage, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ManagedPage), args.Error(1)
}

func (m *MockFacebookAPI) GrantedPermissions(ctx context.Context, accessToken string) ([]string, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFacebookAPI) PageProfile(ctx context.Context, pageID, accessToken string) (string, int64, error) {
	args := m.Called(ctx, pageID, accessToken)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockFacebookAPI) AccountInsights(ctx context.Context, pageID, accessToken string, since, until time.Time) (int64, int64, error) {
	args := m.Called(ctx, pageID, accessToken, since, until)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockFacebookAPI) PagePosts(ctx context.Context, pageID, accessToken string, since, until time.Time, limit int) ([]facebook.PagePost, error) {
	args := m.Called(ctx, pageID, accessToken, since, until, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]facebook.PagePost), args.Error(1)
}

func (m *MockFacebookAPI) PostInsights(ctx context.Context, postID, accessToken string) (int64, int64, error) {
	args := m.Called(ctx, postID, accessToken)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockFacebookAPI) PublishToFeed(ctx context.Context, pageID, pageToken, message, link string, scheduledAt *time.Time) (*facebook.PublishResult, error) {
	args := m.Called(ctx, pageID, pageToken, message, link, scheduledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*facebook.PublishResult), args.Error(1)
}

func (m *MockFacebookAPI) SubscribePage(ctx context.Context, pageID, pageToken string, fields []string) error {
	args := m.Called(ctx, pageID, pageToken, fields)
	return args.Error(0)
}

func (m *MockFacebookAPI) UnsubscribePage(ctx context.Context, pageID, accessToken string) error {
	args := m.Called(ctx, pageID, accessToken)
	return args.Error(0)
}

func (m *MockFacebookAPI) PageSubscriptions(ctx context.Context, pageID, accessToken string) ([]model.WebhookSubscription, error) {
	args := m.Called(ctx, pageID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WebhookSubscription), args.Error(1)
}

type MockInstagramAPI struct {
	mock.Mock
}

func (m *MockInstagramAPI) ExchangeCode(ctx context.Context, code string) (*instagram.TokenResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instagram.TokenResponse), args.Error(1)
}

func (m *MockInstagramAPI) Me(ctx context.Context, accessToken string) (*instagram.UserInfo, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instagram.UserInfo), args.Error(1)
}

func (m *MockInstagramAPI) Profile(ctx context.Context, igUserID, accessToken string) (*instagram.UserInfo, error) {
	args := m.Called(ctx, igUserID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*instagram.UserInfo), args.Error(1)
}

func (m *MockInstagramAPI) RecentMedia(ctx context.Context, igUserID, accessToken string, since time.Time, limit int) ([]instagram.Media, error) {
	args := m.Called(ctx, igUserID, accessToken, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]instagram.Media), args.Error(1)
}

func (m *MockInstagramAPI) MediaInsights(ctx context.Context, mediaID, accessToken string) (int64, int64, int64, error) {
	args := m.Called(ctx, mediaID, accessToken)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}

func (m *MockInstagramAPI) AccountInsights(ctx context.Context, igUserID, accessToken string, since, until time.Time) (int64, int64, error) {
	args := m.Called(ctx, igUserID, accessToken, since, until)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockInstagramAPI) CreateMediaContainer(ctx context.Context, igUserID, accessToken, imageURL, caption string) (string, []byte, error) {
	args := m.Called(ctx, igUserID, accessToken, imageURL, caption)
	var raw []byte
	if args.Get(1) != nil {
		raw = args.Get(1).([]byte)
	}
	return args.String(0), raw, args.Error(2)
}

func (m *MockInstagramAPI) PublishMedia(ctx context.Context, igUserID, accessToken, containerID string) (string, []byte, error) {
	args := m.Called(ctx, igUserID, accessToken, containerID)
	var raw []byte
	if args.Get(1) != nil {
		raw = args.Get(1).([]byte)
	}
	return args.String(0), raw, args.Error(2)
}

type MockTikTokAPI struct {
	mock.Mock
}

func (m *MockTikTokAPI) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockTikTokAPI) ExchangeCode(ctx context.Context, code string) (*tiktok.TokenResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tiktok.TokenResponse), args.Error(1)
}

func (m *MockTikTokAPI) RefreshToken(ctx context.Context, refreshToken string) (*tiktok.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tiktok.TokenResponse), args.Error(1)
}

func (m *MockTikTokAPI) UserInfo(ctx context.Context, accessToken string) (*tiktok.UserInfo, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tiktok.UserInfo), args.Error(1)
}

func (m *MockTikTokAPI) ListVideos(ctx context.Context, accessToken string, max int) ([]tiktok.Video, error) {
	args := m.Called(ctx, accessToken, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tiktok.Video), args.Error(1)
}

type MockWebhookQueue struct {
	mock.Mock
}

func (m *MockWebhookQueue) Enqueue(ctx context.Context, delivery model.WebhookDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}
