package scans

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aibcdev/brandscan/internal/domain/scans"
)

// postsSpanning returns n posts evenly spread over the given number of
// days, newest last.
func postsSpanning(n int, days int) []domain.Post {
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	posts := make([]domain.Post, 0, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(float64(i) * float64(days) / float64(n-1) * 24 * float64(time.Hour))
		posts = append(posts, domain.Post{
			Content:   fmt.Sprintf("post %d", i),
			Timestamp: base.Add(offset).Format(time.RFC3339),
		})
	}
	return posts
}

func TestPostingFrequencyLabel_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		posts []domain.Post
		want  string
	}{
		{"no timestamps", nil, "Unknown"},
		{"single timestamp", postsSpanning(2, 1)[:1], "1 post found"},
		// n posts over n days is exactly 7.0 posts/week.
		{"exactly daily", postsSpanning(4, 4), "Daily"},
		// 4 posts over 7 days is exactly 4.0 posts/week.
		{"four per week", postsSpanning(4, 7), "4x/week"},
		// 2 posts over 14 days is exactly 1.0 posts/week.
		{"weekly", postsSpanning(2, 14), "Weekly"},
		{"less than weekly", postsSpanning(2, 28), "Less than weekly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PostingFrequencyLabel(ParsePostTimes(tt.posts)))
		})
	}
}

func TestParsePostTimes_MixedLayoutsNewestFirst(t *testing.T) {
	t.Parallel()

	posts := []domain.Post{
		{Content: "a", Timestamp: "2025-01-02T10:00:00Z"},
		{Content: "b", Timestamp: "2025-03-01 18:30:00"},
		{Content: "c", Timestamp: "2025-02-15"},
		{Content: "d", Timestamp: "the other day"},
		{Content: "e"},
	}

	times := ParsePostTimes(posts)
	require.Len(t, times, 3)
	assert.Equal(t, time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), times[1])
	assert.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), times[2])
}

func TestPostingTimesLabel(t *testing.T) {
	t.Parallel()

	atHour := func(h int) time.Time {
		return time.Date(2025, 5, 1, h, 0, 0, 0, time.UTC)
	}

	t.Run("two busiest hours", func(t *testing.T) {
		t.Parallel()
		times := []time.Time{atHour(9), atHour(9), atHour(14), atHour(14), atHour(14), atHour(20)}
		assert.Equal(t, "Most posts between 14:00-9:00 (UTC)", PostingTimesLabel(times))
	})

	t.Run("single hour pads a two-hour window", func(t *testing.T) {
		t.Parallel()
		times := []time.Time{atHour(9), atHour(9)}
		assert.Equal(t, "Most posts between 9:00-11:00 (UTC)", PostingTimesLabel(times))
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", PostingTimesLabel(nil))
	})
}

func TestAvgPostLengthLabel(t *testing.T) {
	t.Parallel()

	mk := func(lengths ...int) []domain.Post {
		posts := make([]domain.Post, 0, len(lengths))
		for _, l := range lengths {
			posts = append(posts, domain.Post{Content: strings.Repeat("x", l)})
		}
		return posts
	}

	assert.Equal(t, "", AvgPostLengthLabel(nil))
	assert.Equal(t, "50 chars", AvgPostLengthLabel(mk(40, 60)))
	assert.Equal(t, "200 words", AvgPostLengthLabel(mk(240)))
	assert.Equal(t, "10 min read", AvgPostLengthLabel(mk(600)))
}

func TestEnrichFromPosts_DerivesStatsFromActualPosts(t *testing.T) {
	t.Parallel()

	c := domain.Competitor{Name: "RivalCo", ThreatLevel: "HIGH"}
	data := &domain.ResearchData{
		Posts:         postsSpanning(4, 4),
		ContentThemes: []string{"video", "tutorials"},
	}

	got := enrichFromPosts(c, data)
	assert.Equal(t, "Daily", got.PostingFrequency)
	assert.NotEmpty(t, got.PostingTimes)
	assert.NotEmpty(t, got.AvgPostLength)
	assert.Equal(t, []string{"video", "tutorials"}, got.ContentTypes)
	assert.Equal(t, 4, got.ActualPosts)
	assert.Equal(t, int64(40000), got.WeeklyViews)
	assert.Equal(t, int64(2000), got.WeeklyEngagement)
	assert.Equal(t, 5.0, got.AvgEngagementRate)
}

func TestEnrichFromPosts_KeepsDiscoveryEstimates(t *testing.T) {
	t.Parallel()

	c := domain.Competitor{
		Name:              "RivalCo",
		ThreatLevel:       "HIGH",
		WeeklyViews:       123,
		WeeklyEngagement:  456,
		AvgEngagementRate: 2.5,
	}
	got := enrichFromPosts(c, &domain.ResearchData{Posts: postsSpanning(3, 3)})

	assert.Equal(t, int64(123), got.WeeklyViews)
	assert.Equal(t, int64(456), got.WeeklyEngagement)
	assert.Equal(t, 2.5, got.AvgEngagementRate)
}
