package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appscans "github.com/aibcdev/brandscan/internal/application/scans"
	domain "github.com/aibcdev/brandscan/internal/domain/scans"
	"github.com/aibcdev/brandscan/internal/middleware"
)

type Router struct {
	svc *appscans.Service
}

type Options struct {
	HealthCheckers map[string]middleware.HealthChecker
	RateLimit      int // requests per minute per client, 0 disables
}

func NewRouter(svc *appscans.Service, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if opts.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.RateLimit/60+1))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api/scan", func(rt chi.Router) {
		rt.Post("/start", r.wrap(r.handleStart))
		rt.Get("/{id}/status", r.wrap(r.handleStatus))
		rt.Get("/{id}/results", r.wrap(r.handleResults))
		rt.Get("/user/{username}", r.wrap(r.handleHistory))
		rt.Get("/user/{username}/latest", r.wrap(r.handleLatest))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]any{
					"success": false,
					"error":   "Scan not found",
				})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   err.Error(),
			})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// POST /api/scan/start
// Body: {"username": "...", "platforms": ["twitter"], "scanType": "standard"}
func (r *Router) handleStart(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Username  string   `json:"username"`
		Platforms []string `json:"platforms"`
		ScanType  string   `json:"scanType"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Username and platforms are required",
		})
	}

	body.Username = middleware.SanitizeString(body.Username)
	if body.Username == "" || len(body.Platforms) == 0 {
		return writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Username and platforms are required",
		})
	}
	if err := middleware.ValidateUsername(body.Username); err != nil {
		return writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
	if err := middleware.ValidatePlatforms(body.Platforms); err != nil {
		return writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	id, err := r.svc.StartScan(req.Context(), appscans.StartScanCommand{
		Username:  body.Username,
		Platforms: body.Platforms,
		ScanType:  body.ScanType,
	})
	if err != nil {
		return err
	}
	middleware.IncrementScansStarted()

	// Scan jalan di background, respons langsung balik ke client
	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"scanId":  id,
		"message": "Scan started successfully",
	})
}

// GET /api/scan/{id}/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return domain.ErrNotFound
	}

	scan, err := r.svc.Get(req.Context(), domain.ScanID(id))
	if err != nil {
		return err
	}

	logs := scan.Logs
	if len(logs) > 20 {
		logs = logs[len(logs)-20:]
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"scan": map[string]any{
			"id":       scan.ID,
			"status":   scan.Status,
			"progress": scan.Progress,
			"logs":     logs,
			"error":    scan.Error,
		},
	})
}

// GET /api/scan/{id}/results
func (r *Router) handleResults(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		return domain.ErrNotFound
	}

	scan, err := r.svc.Get(req.Context(), domain.ScanID(id))
	if err != nil {
		return err
	}

	if scan.Status != domain.StatusComplete {
		return writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Scan not complete yet",
			"status":  scan.Status,
		})
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    scan.Results,
	})
}

// GET /api/scan/user/{username}?limit=20
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	username := chi.URLParam(req, "username")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	scans, err := r.svc.History(req.Context(), username)
	if err != nil {
		return err
	}
	if len(scans) > limit {
		scans = scans[:limit]
	}

	summaries := make([]map[string]any, 0, len(scans))
	for _, s := range scans {
		summaries = append(summaries, map[string]any{
			"id":          s.ID,
			"username":    s.Username,
			"platforms":   s.Platforms,
			"scanType":    s.ScanType,
			"status":      s.Status,
			"createdAt":   s.CreatedAt,
			"completedAt": s.CompletedAt,
		})
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"scans":   summaries,
	})
}

// GET /api/scan/user/{username}/latest
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	username := chi.URLParam(req, "username")

	scan, err := r.svc.LatestComplete(req.Context(), username)
	if err != nil {
		return err
	}
	if scan == nil {
		return writeJSON(w, http.StatusOK, map[string]any{
			"success":           true,
			"data":              nil,
			"requestedUsername": username,
		})
	}

	// Results + identitas scan-nya, biar client tahu hasil siapa ini
	data := map[string]any{
		"extractedContent":       scan.Results.ExtractedContent,
		"brandDNA":               scan.Results.BrandDNA,
		"marketShare":            scan.Results.MarketShare,
		"strategicInsights":      scan.Results.StrategicInsights,
		"competitorIntelligence": scan.Results.CompetitorIntelligence,
		"scanUsername":           scan.Username,
		"username":               scan.Username,
		"scanId":                 scan.ID,
		"scanCompletedAt":        scan.CompletedAt,
		"scanCreatedAt":          scan.CreatedAt,
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"data":              data,
		"requestedUsername": username,
	})
}
