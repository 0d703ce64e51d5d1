package scans

import (
	"regexp"
	"strings"

	domain "github.com/aibcdev/brandscan/internal/domain/scans"
)

var (
	mentionRe    = regexp.MustCompile(`@\w+`)
	symbolOnlyRe = regexp.MustCompile(`^[^\w\s]*$`)
	spamRe       = regexp.MustCompile(`(?i)(?:(?:click here|buy now|limited time|act now)[\s!.,]*){2,}`)
)

// mergeStages folds every research stage into one extracted-content
// object: first substantive profile, concatenated posts, de-duplicated
// themes, mean confidence.
func mergeStages(stages []domain.ResearchData) domain.ExtractedContent {
	merged := domain.ExtractedContent{
		Posts:         []domain.Post{},
		ContentThemes: []string{},
	}
	if len(stages) == 0 {
		return merged
	}

	// Profile: prefer the first stage with a real bio (> 20 chars), then
	// the first stage with any profile at all.
	for _, st := range stages {
		if st.Profile != nil && len(st.Profile.Bio) > 20 {
			merged.Profile = *st.Profile
			break
		}
	}
	if merged.Profile.Bio == "" {
		for _, st := range stages {
			if st.Profile != nil {
				merged.Profile = *st.Profile
				break
			}
		}
	}

	seen := make(map[string]bool)
	var confidence float64
	for _, st := range stages {
		for _, p := range st.Posts {
			if len(strings.TrimSpace(p.Content)) > 10 {
				merged.Posts = append(merged.Posts, p)
			}
		}
		for _, t := range st.ContentThemes {
			if t != "" && !seen[t] {
				seen[t] = true
				merged.ContentThemes = append(merged.ContentThemes, t)
			}
		}
		confidence += st.ExtractionConfidence
	}
	merged.ExtractionConfidence = confidence / float64(len(stages))
	return merged
}

// FilterOriginalPosts enforces the output-only policy: keep only
// substantive content published by the scanned account itself. The
// filter is idempotent.
func FilterOriginalPosts(posts []domain.Post, username string) []domain.Post {
	handle := strings.ToLower(strings.TrimPrefix(username, "@"))
	kept := make([]domain.Post, 0, len(posts))

	for _, post := range posts {
		content := strings.TrimSpace(post.Content)
		lower := strings.ToLower(content)

		// Retweets, shares, reposts.
		if strings.HasPrefix(lower, "rt @") ||
			strings.HasPrefix(lower, "retweeting") ||
			strings.Contains(lower, "shared a post") ||
			strings.Contains(lower, "reposted") {
			continue
		}

		// Posts that mention third parties without mentioning the brand
		// are replies to someone else, not output.
		if strings.Contains(lower, "@") && !strings.Contains(lower, "@"+handle) {
			mentions := mentionRe.FindAllString(lower, -1)
			brandMention := false
			for _, m := range mentions {
				if strings.Contains(m, handle) {
					brandMention = true
					break
				}
			}
			if len(mentions) > 0 && !brandMention {
				continue
			}
		}

		// Substance checks.
		if len(content) < 10 {
			continue
		}
		if symbolOnlyRe.MatchString(content) {
			continue
		}
		if post.QualityScore != 0 && post.QualityScore < 0.3 {
			continue
		}
		if spamRe.MatchString(lower) {
			continue
		}

		kept = append(kept, post)
	}
	return kept
}
