package model

import "time"

// AccountInfo is the resolved identity an analytics run reports against. For
// Facebook this may be a managed page rather than the personal profile; the
// IsBusiness flag records which branch was taken since it changes what is
// queryable.
type AccountInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Username   string `json:"username,omitempty"`
	Followers  int64  `json:"followers"`
	IsBusiness bool   `json:"is_business"`
}

// AccountInsights holds account-level totals over the analysis window.
// Missing or failed provider metrics degrade to zero, never to an error.
type AccountInsights struct {
	TotalImpressions   int64   `json:"total_impressions"`
	TotalReach         int64   `json:"total_reach"`
	TotalEngagement    int64   `json:"total_engagement"`
	EngagementRate     float64 `json:"engagement_rate"`
	AverageImpressions float64 `json:"average_impressions"`
	AverageReach       float64 `json:"average_reach"`
	PostCount          int     `json:"post_count"`
}

// PostAnalytics is one normalized content item with its per-item metrics.
type PostAnalytics struct {
	ExternalID  string    `json:"external_id"`
	Message     string    `json:"message,omitempty"`
	Permalink   string    `json:"permalink,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Impressions int64     `json:"impressions"`
	Reach       int64     `json:"reach"`
	Likes       int64     `json:"likes"`
	Comments    int64     `json:"comments"`
	Shares      int64     `json:"shares"`
	Saved       int64     `json:"saved,omitempty"`
	Engagement  int64     `json:"engagement"`
}

// DateRange bounds an analytics window.
type DateRange struct {
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// PlatformAnalytics is the normalized analytics shape shared by all providers.
type PlatformAnalytics struct {
	Platform    Platform        `json:"platform"`
	ChannelID   int64           `json:"channel_id"`
	AccountInfo AccountInfo     `json:"account_info"`
	Insights    AccountInsights `json:"insights"`
	RecentPosts []PostAnalytics `json:"recent_posts"`
	DateRange   DateRange       `json:"date_range"`
}

// ChannelReport tags one channel's outcome in a batch run. A batch never fails
// as a whole; callers see which channels errored instead of silently losing
// them.
type ChannelReport struct {
	ChannelID int64              `json:"channel_id"`
	Platform  Platform           `json:"platform"`
	Analytics *PlatformAnalytics `json:"analytics,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Normalize computes the derived insight fields from the collected posts.
// Division by zero followers yields a zero rate, never NaN.
func Normalize(posts []PostAnalytics, followers int64) AccountInsights {
	var ins AccountInsights
	ins.PostCount = len(posts)
	for _, p := range posts {
		ins.TotalImpressions += p.Impressions
		ins.TotalReach += p.Reach
		ins.TotalEngagement += p.Likes + p.Comments + p.Shares
	}
	if followers > 0 {
		ins.EngagementRate = float64(ins.TotalEngagement) / float64(followers) * 100
	}
	if ins.PostCount > 0 {
		ins.AverageImpressions = float64(ins.TotalImpressions) / float64(ins.PostCount)
		ins.AverageReach = float64(ins.TotalReach) / float64(ins.PostCount)
	}
	return ins
}
