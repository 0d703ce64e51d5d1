package prompt

import (
	"fmt"
	"strings"
)

// Content fed to the analysis prompts is truncated so one oversized scan
// cannot blow the model's context window.
const maxPromptContent = 40000

// InsightsInput carries the pre-computed stats the insights prompt
// references alongside the raw content.
type InsightsInput struct {
	PostCount int
	Combined  string
	DNAJSON   string
	HasVideo  bool
	HasImages bool
	AvgEng    int
	Themes    []string
}

// Truncate caps s at maxPromptContent bytes.
func Truncate(s string) string {
	if len(s) > maxPromptContent {
		return s[:maxPromptContent]
	}
	return s
}

// BrandDNA builds the brand-DNA extraction prompt over the combined
// post text.
func BrandDNA(combined string) string {
	return fmt.Sprintf(`Analyze this brand's content to extract their unique DNA:

Content:
%s

Extract:

1. Brand Archetype (choose ONE from: The Architect, The Hero, The Sage, The Explorer, The Creator, The Ruler, The Caregiver, The Innocent, The Magician, The Outlaw, The Lover, The Jester):
   - Most fitting archetype based on their content

2. Voice & Tone:
   - Writing style (formal, casual, technical, etc.)
   - Vocabulary patterns (list 5-10 key words)
   - Emotional tone (professional, friendly, humorous, etc.)
   - Primary voice tones (list 3, e.g., "Systematic", "Transparent", "Dense", "Bold", "Analytical", "Creative")

3. Content Themes:
   - Main topics they discuss (list 3-5)

4. Core Pillars (list 3-5 key brand pillars/messaging themes):
   - What they consistently communicate about

Return ONLY valid JSON:
{
  "archetype": "The Architect",
  "voice": {
    "style": "...",
    "formality": "...",
    "tone": "...",
    "vocabulary": ["..."],
    "tones": ["Systematic", "Transparent", "Dense"]
  },
  "themes": ["..."],
  "corePillars": ["...", "...", "..."]
}`, Truncate(combined))
}

// Insights builds the strategic-insights prompt.
func Insights(in InsightsInput) string {
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	return fmt.Sprintf(`You're a straight-talking content strategist. Research this creator's competitors and give 2-3 specific, data-driven insights.

Creator content (%d posts):
%s

Brand DNA: %s

Stats:
- Posts analyzed: %d
- Video content: %s
- Image content: %s
- Avg engagement: %d
- Topics: %s

CRITICAL RULES:
1. Research their actual competitors and compare SPECIFIC metrics
2. Include NUMBERS - video lengths, posting frequency, engagement rates
3. Tell them exactly what to do differently based on competitor data
4. No generic advice like "post more" or "be consistent"
5. Every insight must reference what competitors are doing

Generate 2-3 insights with SPECIFIC data:
- Title: 4-6 words, action-focused
- Description: Include specific numbers/comparisons. What competitors do vs what you do.
- Impact: "HIGH IMPACT" or "MEDIUM IMPACT"
- Effort: "Quick win" or "Takes time"

Return ONLY valid JSON:
[
  {
    "title": "Make longer videos",
    "description": "Your videos are 4 mins avg. Top creators do 8-12 mins and get 2x watch time.",
    "impact": "HIGH IMPACT",
    "effort": "Takes time"
  }
]`, in.PostCount, Truncate(in.Combined), in.DNAJSON,
		in.PostCount, yesNo(in.HasVideo), yesNo(in.HasImages), in.AvgEng,
		strings.Join(in.Themes, ", "))
}

// Competitors builds the competitor-discovery prompt, asking for the 3
// closest competitors plus a market-share estimate.
func Competitors(username, combined, dnaJSON, bio string, themes []string) string {
	return fmt.Sprintf(`You are analyzing "%s" and need to find their 3 CLOSEST competitors.

CRITICAL: Don't just find random companies in the same space. Find the 3 that are MOST SIMILAR based on:
1. WHAT they offer (product/service/content type)
2. HOW they offer it (style, tone, approach)
3. TRACTION (similar audience size, engagement levels)

Their Profile:
- Content: %s
- Brand DNA: %s
- Topics: %s
- Bio: %s

For EACH of the 3 closest competitors provide:
- name: Real name/company name
- platform: Primary platform (X, YouTube, LinkedIn, Instagram, TikTok)
- handle: Their handle/username
- threatLevel: "HIGH", "MEDIUM", or "LOW"
- postingFrequency: How often they post (e.g., "Daily", "3x/week", "Weekly")
- postingTimes: When they typically post
- avgPostLength: Average content length
- contentTypes: What they post
- weeklyViews: Estimated weekly views/reach
- weeklyEngagement: Estimated weekly likes+comments+shares
- avgEngagementRate: Estimated engagement rate percentage
- theirAdvantage: One specific sentence about what they do better
- yourOpportunity: One actionable sentence starting with a verb
- platformFocus: Which platform they prioritize most

MARKET SHARE:
- Estimate what %% of their niche's total attention "%s" captures
- This is an ESTIMATE - be realistic (most creators are under 5%%)

Return ONLY valid JSON:
{
  "marketShare": {
    "percentage": 2.5,
    "industry": "Football YouTube creators",
    "totalCreatorsInSpace": 500,
    "yourRank": 45,
    "note": "Estimate based on subscriber count and average views"
  },
  "competitors": [
    {
      "name": "Chunkz",
      "platform": "YouTube",
      "handle": "@chunkz",
      "threatLevel": "HIGH",
      "postingFrequency": "4x/week",
      "postingTimes": "Tuesdays & Fridays 6pm GMT",
      "avgPostLength": "12-15 min videos",
      "contentTypes": ["Football vlogs", "Challenge videos"],
      "weeklyViews": 2500000,
      "weeklyEngagement": 150000,
      "avgEngagementRate": 6.0,
      "theirAdvantage": "Massive crossover appeal beyond just football.",
      "yourOpportunity": "Focus on tactical breakdowns. His content is entertainment-first.",
      "platformFocus": "YouTube (primary), Instagram (secondary)"
    }
  ]
}`, username, Truncate(combined), dnaJSON, strings.Join(themes, ", "), bio, username)
}
