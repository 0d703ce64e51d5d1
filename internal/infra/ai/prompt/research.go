package prompt

import (
	"fmt"
	"strings"
)

// Research builds the single brand-research prompt covering every
// requested platform at once.
func Research(username string, platforms []string) string {
	joined := strings.Join(platforms, ", ")
	return fmt.Sprintf(`Research "%s" on %s. Give me the key facts.

I need:
1. Their profile (bio, followers, verified status)
2. What they post about (5-8 recent posts, summarized)
3. Their main topics (3-5 themes)
4. How they talk (tone, style)
5. Who they compete with (3 real competitors)

WRITING STYLE FOR COMPETITORS:
- Use real names, not generic labels
- Short sentences only
- "theirAdvantage" = one sentence, what they're good at
- "yourOpportunity" = one sentence, how to beat them (start with a verb)

Return ONLY valid JSON:
{
  "profile": {
    "bio": "Their bio",
    "follower_count": 0,
    "verified": false,
    "platform_presence": ["twitter", "youtube"]
  },
  "posts": [
    {
      "content": "Short summary of what they posted",
      "timestamp": "2024-01-15T10:00:00Z",
      "post_type": "video",
      "engagement": {"likes": 0, "shares": 0, "comments": 0},
      "quality_score": 0.8
    }
  ],
  "content_themes": ["topic1", "topic2", "topic3"],
  "brand_voice": {
    "tone": "casual",
    "style": "conversational",
    "vocabulary": ["key", "words"]
  },
  "competitors": [
    {
      "name": "Real Competitor Name",
      "platform": "youtube",
      "handle": "@competitor",
      "threatLevel": "HIGH",
      "primaryVector": "YouTube - posts daily",
      "theirAdvantage": "Bigger audience and better production.",
      "yourOpportunity": "Be more authentic. Their content feels corporate."
    }
  ],
  "extraction_confidence": 0.8
}`, username, joined)
}
