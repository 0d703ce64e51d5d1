package scans

import (
	"time"
)

// ID tipe untuk Scan
type ScanID string

// Status enum
type Status string

const (
	StatusStarting Status = "starting"
	StatusScanning Status = "scanning"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Aggregate Root: Scan
//
// Identity fields (ID, Username, Platforms, ScanType, CreatedAt) are
// write-once at creation. Everything else is mutated only by the
// orchestrator that owns the scan.
type Scan struct {
	ID          ScanID     `json:"id"`
	Username    string     `json:"username"`
	Platforms   []string   `json:"platforms"`
	ScanType    string     `json:"scanType"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	Logs        []string   `json:"logs"`
	Results     *Results   `json:"results,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Update is a partial update applied to an existing scan. Nil fields are
// left untouched; Logs replaces the whole log array (the store never
// appends by itself).
type Update struct {
	Status      *Status
	Progress    *int
	Logs        []string
	Results     *Results
	Error       *string
	CompletedAt *time.Time
}

// Results is the structured output attached once a scan completes.
type Results struct {
	ExtractedContent       ExtractedContent `json:"extractedContent"`
	BrandDNA               BrandDNA         `json:"brandDNA"`
	MarketShare            *MarketShare     `json:"marketShare"`
	StrategicInsights      []Insight        `json:"strategicInsights"`
	CompetitorIntelligence []Competitor     `json:"competitorIntelligence"`
}

// Profile value object
type Profile struct {
	Bio              string   `json:"bio"`
	FollowerCount    int64    `json:"follower_count,omitempty"`
	Verified         bool     `json:"verified,omitempty"`
	ProfileImage     string   `json:"profile_image,omitempty"`
	PlatformPresence []string `json:"platform_presence,omitempty"`
}

// Engagement value object
type Engagement struct {
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
	Views    int64 `json:"views,omitempty"`
}

// Post is a single piece of content published by the scanned account.
type Post struct {
	Content      string      `json:"content"`
	Timestamp    string      `json:"timestamp,omitempty"`
	MediaURLs    []string    `json:"media_urls,omitempty"`
	Engagement   *Engagement `json:"engagement,omitempty"`
	PostType     string      `json:"post_type,omitempty"`
	QualityScore float64     `json:"quality_score,omitempty"`
}

// ExtractedContent is the merged output of the research stage.
type ExtractedContent struct {
	Profile              Profile  `json:"profile"`
	Posts                []Post   `json:"posts"`
	ContentThemes        []string `json:"content_themes"`
	ExtractionConfidence float64  `json:"extraction_confidence"`
}

// BrandVoice value object
type BrandVoice struct {
	Style      string   `json:"style,omitempty"`
	Formality  string   `json:"formality,omitempty"`
	Tone       string   `json:"tone,omitempty"`
	Vocabulary []string `json:"vocabulary,omitempty"`
	Tones      []string `json:"tones,omitempty"`
}

// BrandDNA is the distilled identity of the scanned brand.
type BrandDNA struct {
	Archetype          string            `json:"archetype"`
	Voice              BrandVoice        `json:"voice"`
	Themes             []string          `json:"themes"`
	CorePillars        []string          `json:"corePillars"`
	VisualIdentity     map[string]any    `json:"visual_identity,omitempty"`
	EngagementPatterns map[string]string `json:"engagement_patterns,omitempty"`
}

// Insight is one strategic recommendation.
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Effort      string `json:"effort"`
}

// MarketShare is an estimate, not a measurement.
type MarketShare struct {
	Percentage           float64 `json:"percentage"`
	Industry             string  `json:"industry"`
	TotalCreatorsInSpace int     `json:"totalCreatorsInSpace,omitempty"`
	YourRank             int     `json:"yourRank,omitempty"`
	Note                 string  `json:"note,omitempty"`
}

// Competitor describes one close competitor, optionally enriched with
// posting statistics derived from their actual posts.
type Competitor struct {
	Name              string   `json:"name"`
	Platform          string   `json:"platform,omitempty"`
	Handle            string   `json:"handle,omitempty"`
	ThreatLevel       string   `json:"threatLevel"`
	PrimaryVector     string   `json:"primaryVector,omitempty"`
	PostingFrequency  string   `json:"postingFrequency,omitempty"`
	PostingTimes      string   `json:"postingTimes,omitempty"`
	AvgPostLength     string   `json:"avgPostLength,omitempty"`
	ContentTypes      []string `json:"contentTypes,omitempty"`
	WeeklyViews       int64    `json:"weeklyViews,omitempty"`
	WeeklyEngagement  int64    `json:"weeklyEngagement,omitempty"`
	AvgEngagementRate float64  `json:"avgEngagementRate,omitempty"`
	TheirAdvantage    string   `json:"theirAdvantage,omitempty"`
	YourOpportunity   string   `json:"yourOpportunity,omitempty"`
	PlatformFocus     string   `json:"platformFocus,omitempty"`
	ActualPosts       int      `json:"actualPosts,omitempty"`
}

// ResearchData is the raw payload of one brand-research call.
type ResearchData struct {
	Profile              *Profile     `json:"profile"`
	Posts                []Post       `json:"posts"`
	ContentThemes        []string     `json:"content_themes"`
	BrandVoice           *BrandVoice  `json:"brand_voice,omitempty"`
	Competitors          []Competitor `json:"competitors,omitempty"`
	ExtractionConfidence float64      `json:"extraction_confidence"`
}

// CompetitorReport is the payload of the competitor-discovery call.
type CompetitorReport struct {
	MarketShare *MarketShare `json:"marketShare"`
	Competitors []Competitor `json:"competitors"`
}
