package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"social-hub/domain/model"
	"social-hub/infrastructure/cache"
	"social-hub/infrastructure/clients/facebook"
	"social-hub/infrastructure/clients/instagram"
	"social-hub/infrastructure/clients/tiktok"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
)

const (
	recentPostLimit = 25
	channelTimeout  = 45 * time.Second
)

type IFacebookAnalyticsAPI interface {
	MyPages(ctx context.Context, accessToken string) ([]model.ManagedPage, error)
	Me(ctx context.Context, accessToken string) (*facebook.UserInfo, error)
	PageProfile(ctx context.Context, pageID, accessToken string) (string, int64, error)
	AccountInsights(ctx context.Context, pageID, accessToken string, since, until time.Time) (int64, int64, error)
	PagePosts(ctx context.Context, pageID, accessToken string, since, until time.Time, limit int) ([]facebook.PagePost, error)
	PostInsights(ctx context.Context, postID, accessToken string) (int64, int64, error)
}

type IInstagramAnalyticsAPI interface {
	Profile(ctx context.Context, igUserID, accessToken string) (*instagram.UserInfo, error)
	RecentMedia(ctx context.Context, igUserID, accessToken string, since time.Time, limit int) ([]instagram.Media, error)
	MediaInsights(ctx context.Context, mediaID, accessToken string) (int64, int64, int64, error)
	AccountInsights(ctx context.Context, igUserID, accessToken string, since, until time.Time) (int64, int64, error)
}

type ITikTokAnalyticsAPI interface {
	UserInfo(ctx context.Context, accessToken string) (*tiktok.UserInfo, error)
	ListVideos(ctx context.Context, accessToken string, max int) ([]tiktok.Video, error)
}

type IAnalyticsUsecase interface {
	Analyze(ctx context.Context, channel *model.Channel, windowDays int) (*model.PlatformAnalytics, error)
	AnalyzeAll(ctx context.Context, channels []*model.Channel, windowDays int) []model.ChannelReport
}

type analyticsUsecase struct {
	fb             IFacebookAnalyticsAPI
	ig             IInstagramAnalyticsAPI
	tk             ITikTokAnalyticsAPI
	cache          *cache.AnalyticsCache
	maxConcurrency int
	pageNameHint   string
}

func NewAnalyticsUsecase(fb IFacebookAnalyticsAPI, ig IInstagramAnalyticsAPI, tk ITikTokAnalyticsAPI, analyticsCache *cache.AnalyticsCache) IAnalyticsUsecase {
	maxConcurrency := configuration.C.Analytics.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &analyticsUsecase{
		fb:             fb,
		ig:             ig,
		tk:             tk,
		cache:          analyticsCache,
		maxConcurrency: maxConcurrency,
		pageNameHint:   configuration.GetPlatformConfig("facebook").PageNameHint,
	}
}

// Analyze fetches and normalizes one channel's analytics over the window.
// Account-level and per-item insight failures degrade to zero; only a total
// failure (identity unreachable) errors.
func (u *analyticsUsecase) Analyze(ctx context.Context, channel *model.Channel, windowDays int) (*model.PlatformAnalytics, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	if cached, ok := u.cache.Get(ctx, channel.ID, windowDays); ok {
		return cached, nil
	}

	until := time.Now().UTC()
	since := until.AddDate(0, 0, -windowDays)

	var (
		pa  *model.PlatformAnalytics
		err error
	)
	switch channel.Platform {
	case model.PlatformFacebook:
		pa, err = u.analyzeFacebook(ctx, channel, since, until)
	case model.PlatformInstagram:
		pa, err = u.analyzeInstagram(ctx, channel, since, until)
	case model.PlatformTikTok:
		pa, err = u.analyzeTikTok(ctx, channel, since, until)
	default:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, channel.Platform)
	}
	if err != nil {
		return nil, err
	}

	// Account-level insight totals, when the provider returned them, are more
	// complete than the per-post sum (they cover items outside the page).
	accImpressions, accReach := pa.Insights.TotalImpressions, pa.Insights.TotalReach

	pa.Platform = channel.Platform
	pa.ChannelID = channel.ID
	pa.DateRange = model.DateRange{Since: since, Until: until}
	pa.Insights = model.Normalize(pa.RecentPosts, pa.AccountInfo.Followers)
	if accImpressions > pa.Insights.TotalImpressions {
		pa.Insights.TotalImpressions = accImpressions
	}
	if accReach > pa.Insights.TotalReach {
		pa.Insights.TotalReach = accReach
	}
	u.cache.Set(ctx, windowDays, pa)
	return pa, nil
}

// AnalyzeAll fans out across channels with bounded concurrency and a per
// channel timeout. Every channel yields a tagged report; one channel's failure
// never affects another's result.
func (u *analyticsUsecase) AnalyzeAll(ctx context.Context, channels []*model.Channel, windowDays int) []model.ChannelReport {
	reports := make([]model.ChannelReport, len(channels))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.maxConcurrency)
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			chCtx, cancel := context.WithTimeout(gctx, channelTimeout)
			defer cancel()

			report := model.ChannelReport{ChannelID: ch.ID, Platform: ch.Platform}
			pa, err := u.Analyze(chCtx, ch, windowDays)
			if err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{
					"error":      err,
					"channel_id": ch.ID,
					"platform":   ch.Platform,
				}).Warn("Channel analytics failed")
				report.Error = err.Error()
			} else {
				report.Analytics = pa
			}
			mu.Lock()
			reports[i] = report
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (u *analyticsUsecase) analyzeFacebook(ctx context.Context, channel *model.Channel, since, until time.Time) (*model.PlatformAnalytics, error) {
	// Account resolution: pages were captured at callback time; refresh the
	// list from the provider only when meta has none.
	pages := []model.ManagedPage(nil)
	if channel.Meta.Facebook != nil {
		pages = channel.Meta.Facebook.Pages
	}
	if len(pages) == 0 {
		fetched, err := u.fb.MyPages(ctx, channel.AccessToken)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Page list fetch failed; falling back to profile identity")
		} else {
			pages = fetched
		}
	}

	pa := &model.PlatformAnalytics{RecentPosts: []model.PostAnalytics{}}
	page := selectPage(pages, u.pageNameHint)
	if page == nil {
		// Personal profile: insights and feed analytics are not queryable.
		me, err := u.fb.Me(ctx, channel.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrIdentityFetchFailed, err)
		}
		pa.AccountInfo = model.AccountInfo{ID: me.ID, Name: me.Name}
		return pa, nil
	}

	token := page.AccessToken
	if token == "" {
		token = channel.AccessToken
	}

	pa.AccountInfo = model.AccountInfo{ID: page.ID, Name: page.Name, IsBusiness: true}
	if name, followers, err := u.fb.PageProfile(ctx, page.ID, token); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Page profile fetch failed; follower count degrades to zero")
	} else {
		pa.AccountInfo.Name = name
		pa.AccountInfo.Followers = followers
	}
	if impressions, reach, err := u.fb.AccountInsights(ctx, page.ID, token, since, until); err != nil {
		logger.GetLogger().WithField("error", err).Debug("Account insights degraded to zero")
	} else {
		pa.Insights.TotalImpressions = impressions
		pa.Insights.TotalReach = reach
	}

	posts, err := u.fb.PagePosts(ctx, page.ID, token, since, until, recentPostLimit)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		item := model.PostAnalytics{
			ExternalID:  p.ID,
			Message:     p.Message,
			Permalink:   p.PermalinkURL,
			PublishedAt: p.CreatedTime,
			Likes:       p.Reactions,
			Comments:    p.Comments,
			Shares:      p.Shares,
		}
		if impressions, reach, err := u.fb.PostInsights(ctx, p.ID, token); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":   err,
				"post_id": p.ID,
			}).Debug("Post insights degraded to zero")
		} else {
			item.Impressions = impressions
			item.Reach = reach
		}
		item.Engagement = item.Likes + item.Comments + item.Shares
		pa.RecentPosts = append(pa.RecentPosts, item)
	}
	return pa, nil
}

func (u *analyticsUsecase) analyzeInstagram(ctx context.Context, channel *model.Channel, since, until time.Time) (*model.PlatformAnalytics, error) {
	igUserID := channel.ExternalID
	if channel.Meta.Instagram != nil && channel.Meta.Instagram.BusinessAccountID != "" {
		igUserID = channel.Meta.Instagram.BusinessAccountID
	}

	pa := &model.PlatformAnalytics{RecentPosts: []model.PostAnalytics{}}
	profile, err := u.ig.Profile(ctx, igUserID, channel.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIdentityFetchFailed, err)
	}
	pa.AccountInfo = model.AccountInfo{
		ID:         profile.ID,
		Name:       profile.Name,
		Username:   profile.Username,
		Followers:  profile.FollowersCount,
		IsBusiness: true,
	}
	if impressions, reach, err := u.ig.AccountInsights(ctx, igUserID, channel.AccessToken, since, until); err != nil {
		logger.GetLogger().WithField("error", err).Debug("Account insights degraded to zero")
	} else {
		pa.Insights.TotalImpressions = impressions
		pa.Insights.TotalReach = reach
	}

	media, err := u.ig.RecentMedia(ctx, igUserID, channel.AccessToken, since, recentPostLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range media {
		if m.Timestamp.After(until) {
			continue
		}
		item := model.PostAnalytics{
			ExternalID:  m.ID,
			Message:     m.Caption,
			Permalink:   m.Permalink,
			PublishedAt: m.Timestamp,
			Likes:       m.LikeCount,
			Comments:    m.CommentsCount,
		}
		if impressions, reach, saved, err := u.ig.MediaInsights(ctx, m.ID, channel.AccessToken); err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":    err,
				"media_id": m.ID,
			}).Debug("Media insights degraded to zero")
		} else {
			item.Impressions = impressions
			item.Reach = reach
			item.Saved = saved
		}
		item.Engagement = item.Likes + item.Comments + item.Shares
		pa.RecentPosts = append(pa.RecentPosts, item)
	}
	return pa, nil
}

func (u *analyticsUsecase) analyzeTikTok(ctx context.Context, channel *model.Channel, since, until time.Time) (*model.PlatformAnalytics, error) {
	info, err := u.tk.UserInfo(ctx, channel.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIdentityFetchFailed, err)
	}
	pa := &model.PlatformAnalytics{RecentPosts: []model.PostAnalytics{}}
	pa.AccountInfo = model.AccountInfo{
		ID:        info.OpenID,
		Name:      info.DisplayName,
		Followers: info.FollowerCount,
	}

	videos, err := u.tk.ListVideos(ctx, channel.AccessToken, recentPostLimit)
	if err != nil {
		return nil, err
	}
	for _, v := range videos {
		publishedAt := time.Unix(v.CreateTime, 0).UTC()
		if publishedAt.Before(since) || publishedAt.After(until) {
			continue
		}
		// TikTok reports views, not impressions; views stand in for both
		// impressions and reach in the normalized shape.
		pa.RecentPosts = append(pa.RecentPosts, model.PostAnalytics{
			ExternalID:  v.ID,
			Message:     v.Title,
			Permalink:   v.ShareURL,
			PublishedAt: publishedAt,
			Impressions: v.ViewCount,
			Reach:       v.ViewCount,
			Likes:       v.LikeCount,
			Comments:    v.CommentCount,
			Shares:      v.ShareCount,
			Engagement:  v.LikeCount + v.CommentCount + v.ShareCount,
		})
	}
	sort.Slice(pa.RecentPosts, func(i, j int) bool {
		return pa.RecentPosts[i].PublishedAt.After(pa.RecentPosts[j].PublishedAt)
	})
	return pa, nil
}

// selectPage picks the managed page by configured name hint, else the first.
func selectPage(pages []model.ManagedPage, hint string) *model.ManagedPage {
	if len(pages) == 0 {
		return nil
	}
	if hint != "" {
		for i := range pages {
			if strings.EqualFold(pages[i].Name, hint) {
				return &pages[i]
			}
		}
	}
	return &pages[0]
}
