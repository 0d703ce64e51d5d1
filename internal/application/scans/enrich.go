package scans

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/aibcdev/brandscan/internal/domain/scans"
)

// enrichCompetitors re-researches each discovered competitor (up to 3,
// concurrently) and derives posting statistics from their actual posts.
// A competitor whose enrichment fails is kept as discovered; one bad
// handle never blocks the others.
func (s *Service) enrichCompetitors(ctx context.Context, comps []domain.Competitor) []domain.Competitor {
	if len(comps) == 0 {
		return comps
	}

	enriched := make([]domain.Competitor, len(comps))
	copy(enriched, comps)

	var g errgroup.Group
	for i := range enriched {
		g.Go(func() error {
			c := enriched[i]
			handle := c.Handle
			if handle == "" {
				handle = c.Name
			}
			platforms := []string{"twitter", "linkedin", "instagram"}
			if c.Platform != "" {
				platforms = append([]string{strings.ToLower(c.Platform)}, platforms...)
			} else {
				platforms = append([]string{"youtube"}, platforms...)
			}

			data, err := s.researchBrand(ctx, handle, platforms)
			if err != nil || len(data.Posts) == 0 {
				return nil
			}
			enriched[i] = enrichFromPosts(c, data)
			return nil
		})
	}
	_ = g.Wait()
	return enriched
}

func enrichFromPosts(c domain.Competitor, data *domain.ResearchData) domain.Competitor {
	times := ParsePostTimes(data.Posts)

	if label := PostingFrequencyLabel(times); label != "Unknown" {
		c.PostingFrequency = label
	} else if c.PostingFrequency == "" {
		c.PostingFrequency = "Unknown"
	}

	if label := PostingTimesLabel(times); label != "" {
		c.PostingTimes = label
	} else if c.PostingTimes == "" {
		c.PostingTimes = "Unknown"
	}

	if label := AvgPostLengthLabel(data.Posts); label != "" {
		c.AvgPostLength = label
	} else if c.AvgPostLength == "" {
		c.AvgPostLength = "Unknown"
	}

	if len(data.ContentThemes) > 0 {
		c.ContentTypes = data.ContentThemes
	}
	c.ActualPosts = len(data.Posts)

	// Keep the discovery call's engagement estimates when present,
	// otherwise derive rough ones from post volume.
	if c.WeeklyViews == 0 {
		c.WeeklyViews = int64(len(data.Posts)) * 10000
	}
	if c.WeeklyEngagement == 0 {
		c.WeeklyEngagement = int64(len(data.Posts)) * 500
	}
	if c.AvgEngagementRate == 0 {
		c.AvgEngagementRate = 5.0
	}
	return c
}

// ParsePostTimes extracts the parseable timestamps from posts, newest
// first.
func ParsePostTimes(posts []domain.Post) []time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	var times []time.Time
	for _, p := range posts {
		if p.Timestamp == "" {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, p.Timestamp); err == nil {
				times = append(times, t.UTC())
				break
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	return times
}

// PostingFrequencyLabel maps a set of post timestamps to a human
// cadence label.
func PostingFrequencyLabel(times []time.Time) string {
	switch len(times) {
	case 0:
		return "Unknown"
	case 1:
		return "1 post found"
	}

	newest := times[0]
	oldest := times[len(times)-1]
	days := math.Max(1, newest.Sub(oldest).Hours()/24)
	perWeek := float64(len(times)) / days * 7

	switch {
	case perWeek >= 7:
		return "Daily"
	case perWeek >= 2:
		return fmt.Sprintf("%dx/week", int(math.Round(perWeek)))
	case perWeek >= 1:
		return "Weekly"
	default:
		return "Less than weekly"
	}
}

// PostingTimesLabel buckets timestamps by hour of day and renders the
// two busiest hours as a range.
func PostingTimesLabel(times []time.Time) string {
	if len(times) == 0 {
		return ""
	}

	counts := make(map[int]int)
	for _, t := range times {
		counts[t.Hour()]++
	}
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	// Busiest first; equal counts break toward the earlier hour so the
	// label is deterministic.
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})

	primary := hours[0]
	secondary := (primary + 2) % 24
	if len(hours) > 1 {
		secondary = hours[1]
	}
	return fmt.Sprintf("Most posts between %d:00-%d:00 (UTC)", primary, secondary)
}

// AvgPostLengthLabel renders the mean content length as chars, words or
// reading time depending on magnitude.
func AvgPostLengthLabel(posts []domain.Post) string {
	var sum, n int
	for _, p := range posts {
		if l := len(p.Content); l > 0 {
			sum += l
			n++
		}
	}
	if n == 0 {
		return ""
	}

	avg := float64(sum) / float64(n)
	switch {
	case avg < 100:
		return fmt.Sprintf("%d chars", int(math.Round(avg)))
	case avg < 500:
		return fmt.Sprintf("%d words", int(math.Round(avg/100))*100)
	default:
		return fmt.Sprintf("%d min read", int(math.Round(avg/60)))
	}
}
