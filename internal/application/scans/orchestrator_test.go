package scans

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aibcdev/brandscan/internal/domain/scans"
	"github.com/aibcdev/brandscan/internal/infra/db/memory"
)

// stubGenerator routes each prompt through fn. Prompts are told apart by
// the fixed phrasing each builder uses.
type stubGenerator struct {
	fn func(prompt string) (string, error)
}

func (g stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return g.fn(prompt)
}

const (
	researchJSON = `{
		"profile": {"bio": "Acme builds automated brand infrastructure for modern teams"},
		"posts": [
			{"content": "Shipping our new analytics pipeline today", "timestamp": "2025-04-01T10:00:00Z", "media_urls": ["https://youtube.com/watch?v=1"]},
			{"content": "tiny"},
			{"content": "Why we rebuilt our orchestration layer from scratch", "timestamp": "2025-04-03T10:00:00Z"}
		],
		"content_themes": ["automation", "branding"],
		"extraction_confidence": 0.9
	}`

	competitorResearchJSON = `{
		"profile": {"bio": "A rival brand"},
		"posts": [
			{"content": "Rival post number one with substance", "timestamp": "2025-04-01T09:00:00Z"},
			{"content": "Rival post number two with substance", "timestamp": "2025-04-05T09:00:00Z"}
		],
		"content_themes": ["video"],
		"extraction_confidence": 0.8
	}`

	dnaJSON = `{
		"archetype": "The Sage",
		"voice": {"style": "casual", "tones": ["Bold", "Analytical", "Direct"]},
		"themes": ["automation"],
		"corePillars": ["Ship fast", "Explain everything"]
	}`

	insightsJSON = `[
		{"title": "Make longer videos", "description": "Competitors average 10 min, you average 4.", "impact": "HIGH IMPACT", "effort": "Takes time"},
		{"title": "Missing effort field", "description": "Should be dropped.", "impact": "HIGH IMPACT"},
		{"title": "Post on a schedule", "description": "Top rivals post daily at 9am.", "impact": "MEDIUM IMPACT", "effort": "Quick win"}
	]`

	competitorsJSON = `{
		"marketShare": {"percentage": 2.5, "industry": "Brand tooling"},
		"competitors": [
			{"name": "RivalCo", "platform": "YouTube", "handle": "@rivalco", "threatLevel": "HIGH"},
			{"name": "Nameless", "threatLevel": ""},
			{"name": "OtherCo", "threatLevel": "LOW"}
		]
	}`
)

func happyGenerator(username string) stubGenerator {
	return stubGenerator{fn: func(prompt string) (string, error) {
		switch {
		case strings.HasPrefix(prompt, `Research "`+username+`"`):
			return "Here you go:\n```json\n" + researchJSON + "\n```", nil
		case strings.HasPrefix(prompt, `Research "`):
			return competitorResearchJSON, nil
		case strings.Contains(prompt, "unique DNA"):
			return dnaJSON, nil
		case strings.Contains(prompt, "content strategist"):
			return insightsJSON, nil
		case strings.Contains(prompt, "CLOSEST competitors"):
			return competitorsJSON, nil
		}
		return "", errors.New("unexpected prompt")
	}}
}

func setupServiceTest(t *testing.T, gen stubGenerator) (*Service, *memory.ScanRepository) {
	t.Helper()
	repo := memory.NewScanRepository()
	svc := New(Config{Repo: repo, Generator: gen})
	return svc, repo
}

func TestStartScan_CreatesStartingRecord(t *testing.T) {
	t.Parallel()

	// Hold the pipeline at its first external call so the record can be
	// observed mid-flight.
	gate := make(chan struct{})
	gen := stubGenerator{fn: func(string) (string, error) {
		<-gate
		return "", errors.New("released")
	}}
	svc, repo := setupServiceTest(t, gen)
	ctx := context.Background()

	id, err := svc.StartScan(ctx, StartScanCommand{Username: "acme", Platforms: []string{"twitter"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(id), "scan_"))

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "standard", rec.ScanType)
	assert.NotNil(t, rec.Logs)
	assert.Contains(t, []domain.Status{domain.StatusStarting, domain.StatusScanning}, rec.Status)
	assert.Less(t, rec.Progress, 100)

	close(gate)
	svc.Wait()
}

func TestScan_SuccessPipeline(t *testing.T) {
	t.Parallel()

	svc, repo := setupServiceTest(t, happyGenerator("acme"))
	ctx := context.Background()

	id, err := svc.StartScan(ctx, StartScanCommand{
		Username:  "acme",
		Platforms: []string{"twitter", "youtube"},
		ScanType:  "deep",
	})
	require.NoError(t, err)
	svc.Wait()

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	assert.Empty(t, rec.Error)
	require.NotNil(t, rec.CompletedAt)
	require.NotNil(t, rec.Results)

	content := rec.Results.ExtractedContent
	assert.Equal(t, "Acme builds automated brand infrastructure for modern teams", content.Profile.Bio)
	require.Len(t, content.Posts, 2, "posts at or under 10 chars are dropped")
	for _, p := range content.Posts {
		assert.Greater(t, len(p.Content), 10)
	}
	assert.Equal(t, []string{"automation", "branding"}, content.ContentThemes)
	assert.InDelta(t, 0.9, content.ExtractionConfidence, 1e-9)

	assert.Equal(t, "The Sage", rec.Results.BrandDNA.Archetype)
	assert.Equal(t, []string{"Ship fast", "Explain everything"}, rec.Results.BrandDNA.CorePillars)

	require.Len(t, rec.Results.StrategicInsights, 2, "insights missing required fields are dropped")
	assert.Equal(t, "Make longer videos", rec.Results.StrategicInsights[0].Title)

	require.NotNil(t, rec.Results.MarketShare)
	assert.InDelta(t, 2.5, rec.Results.MarketShare.Percentage, 1e-9)

	require.Len(t, rec.Results.CompetitorIntelligence, 2, "competitors without a threat level are dropped")
	for _, c := range rec.Results.CompetitorIntelligence {
		assert.Equal(t, 2, c.ActualPosts)
		assert.NotEmpty(t, c.PostingFrequency)
		assert.Equal(t, int64(20000), c.WeeklyViews)
	}

	joined := strings.Join(rec.Logs, "\n")
	assert.Contains(t, joined, "[SUCCESS] Brand research completed")
	assert.Contains(t, joined, "[SUCCESS] Brand DNA extracted")
	assert.Contains(t, joined, "[SUCCESS] Strategic insights generated")
}

func TestScan_ResearchCompetitorsSkipDiscovery(t *testing.T) {
	t.Parallel()

	// Research that already names competitors: discovery must not run.
	withComps := `{
		"profile": {"bio": "Acme builds automated brand infrastructure for modern teams"},
		"posts": [{"content": "A perfectly substantive original post"}],
		"content_themes": ["automation"],
		"competitors": [{"name": "InlineCo", "threatLevel": "HIGH"}],
		"extraction_confidence": 0.9
	}`

	discoveryCalled := false
	gen := stubGenerator{fn: func(prompt string) (string, error) {
		switch {
		case strings.HasPrefix(prompt, `Research "`):
			return withComps, nil
		case strings.Contains(prompt, "unique DNA"):
			return dnaJSON, nil
		case strings.Contains(prompt, "content strategist"):
			return insightsJSON, nil
		case strings.Contains(prompt, "CLOSEST competitors"):
			discoveryCalled = true
			return competitorsJSON, nil
		}
		return "", errors.New("unexpected prompt")
	}}

	svc, repo := setupServiceTest(t, gen)
	ctx := context.Background()

	id, err := svc.StartScan(ctx, StartScanCommand{Username: "acme", Platforms: []string{"twitter"}})
	require.NoError(t, err)
	svc.Wait()

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec.Results)
	require.Len(t, rec.Results.CompetitorIntelligence, 1)
	assert.Equal(t, "InlineCo", rec.Results.CompetitorIntelligence[0].Name)
	assert.False(t, discoveryCalled)
}

func TestScan_FallbackGuarantee(t *testing.T) {
	t.Parallel()

	gen := stubGenerator{fn: func(string) (string, error) {
		return "", errors.New("model unavailable")
	}}
	svc, repo := setupServiceTest(t, gen)
	ctx := context.Background()

	id, err := svc.StartScan(ctx, StartScanCommand{Username: "acme", Platforms: []string{"twitter"}})
	require.NoError(t, err)
	svc.Wait()

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	require.NotNil(t, rec.Results)

	content := rec.Results.ExtractedContent
	assert.Equal(t, "Digital presence for acme", content.Profile.Bio)
	assert.Empty(t, content.Posts)
	assert.Equal(t, []string{"content creation", "brand building"}, content.ContentThemes)
	assert.InDelta(t, 0.3, content.ExtractionConfidence, 1e-9)

	assert.Equal(t, "The Architect", rec.Results.BrandDNA.Archetype)
	assert.Equal(t, []string{"Content Strategy", "Brand Identity", "Market Position"}, rec.Results.BrandDNA.CorePillars)

	require.Len(t, rec.Results.StrategicInsights, 2)
	assert.Equal(t, "No Video Content Strategy", rec.Results.StrategicInsights[0].Title)

	assert.Empty(t, rec.Results.CompetitorIntelligence)
	assert.Nil(t, rec.Results.MarketShare)

	joined := strings.Join(rec.Logs, "\n")
	assert.Contains(t, joined, "[ERROR] Brand research failed")
}

func TestScan_PanicSalvagesToComplete(t *testing.T) {
	t.Parallel()

	gen := stubGenerator{fn: func(string) (string, error) {
		panic("generator exploded")
	}}
	svc, repo := setupServiceTest(t, gen)
	ctx := context.Background()

	id, err := svc.StartScan(ctx, StartScanCommand{Username: "acme", Platforms: []string{"twitter"}})
	require.NoError(t, err)
	svc.Wait()

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	assert.Contains(t, rec.Error, "generator exploded")
	require.NotNil(t, rec.Results)

	assert.Equal(t, "Profile for acme", rec.Results.ExtractedContent.Profile.Bio)
	assert.InDelta(t, 0.1, rec.Results.ExtractedContent.ExtractionConfidence, 1e-9)
	require.Len(t, rec.Results.StrategicInsights, 1)
	assert.Equal(t, "Initial Scan Complete", rec.Results.StrategicInsights[0].Title)

	joined := strings.Join(rec.Logs, "\n")
	assert.Contains(t, joined, "[ERROR] Scan failed")
}

// progressRecorder wraps the memory store and keeps every progress value
// written, in order.
type progressRecorder struct {
	*memory.ScanRepository
	mu     sync.Mutex
	values []int
}

func (r *progressRecorder) Apply(ctx context.Context, id domain.ScanID, u domain.Update) error {
	if u.Progress != nil {
		r.mu.Lock()
		r.values = append(r.values, *u.Progress)
		r.mu.Unlock()
	}
	return r.ScanRepository.Apply(ctx, id, u)
}

func TestScan_ProgressIsMonotonic(t *testing.T) {
	t.Parallel()

	repo := &progressRecorder{ScanRepository: memory.NewScanRepository()}
	svc := New(Config{Repo: repo, Generator: happyGenerator("acme")})
	ctx := context.Background()

	_, err := svc.StartScan(ctx, StartScanCommand{Username: "acme", Platforms: []string{"twitter"}})
	require.NoError(t, err)
	svc.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.NotEmpty(t, repo.values)
	for i := 1; i < len(repo.values); i++ {
		assert.GreaterOrEqual(t, repo.values[i], repo.values[i-1])
	}
	assert.Equal(t, 100, repo.values[len(repo.values)-1])
}

func TestLatestComplete(t *testing.T) {
	t.Parallel()

	repo := memory.NewScanRepository()
	svc := New(Config{Repo: repo, Generator: happyGenerator("acme")})
	ctx := context.Background()

	older := &domain.Scan{
		ID: "scan_older", Username: "acme", Status: domain.StatusComplete,
		Results:   &domain.Results{},
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	running := &domain.Scan{
		ID: "scan_running", Username: "acme", Status: domain.StatusScanning,
		CreatedAt: time.Now().Add(-1 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, running))

	got, err := svc.LatestComplete(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ScanID("scan_older"), got.ID)

	none, err := svc.LatestComplete(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, none)
}
