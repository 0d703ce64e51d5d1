package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appscans "github.com/aibcdev/brandscan/internal/application/scans"
	"github.com/aibcdev/brandscan/internal/config"
	domainai "github.com/aibcdev/brandscan/internal/domain/ai"
	domain "github.com/aibcdev/brandscan/internal/domain/scans"
	"github.com/aibcdev/brandscan/internal/infra/ai/gemini"
	"github.com/aibcdev/brandscan/internal/infra/ai/openai"
	memoryp "github.com/aibcdev/brandscan/internal/infra/db/memory"
	mysqlp "github.com/aibcdev/brandscan/internal/infra/db/mysql"
	postgresp "github.com/aibcdev/brandscan/internal/infra/db/postgres"
	"github.com/aibcdev/brandscan/internal/infra/httpserver"
	minioStore "github.com/aibcdev/brandscan/internal/infra/storage"
	"github.com/aibcdev/brandscan/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	checkers := map[string]middleware.HealthChecker{}

	// init repo sesuai driver
	var repo domain.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		repo = mysqlp.NewScanRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		repo = postgresp.NewScanRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		repo = memoryp.NewScanRepository()
	}

	// init generator sesuai provider
	var gen domainai.Generator
	switch cfg.AI.Provider {
	case "gemini":
		cli, err := gemini.NewClient(ctx, gemini.Config{
			ProjectID:      cfg.AI.Project,
			Region:         cfg.AI.Region,
			Model:          cfg.AI.Model,
			RequestTimeout: cfg.RequestTimeout(),
			MaxRetries:     cfg.AI.MaxRetries,
		})
		if err != nil {
			log.Fatalf("gemini init error: %v", err)
		}
		defer cli.Close()
		gen = cli
	default:
		gen = openai.NewClient(openai.Config{
			APIKey:         cfg.AI.APIKey,
			Model:          cfg.AI.Model,
			RequestTimeout: cfg.RequestTimeout(),
			MaxRetries:     cfg.AI.MaxRetries,
		})
	}

	// init minio (opsional)
	var archive domain.ArchiveStore
	if cfg.Archive.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = store
	}

	// init service
	svc := appscans.New(appscans.Config{
		Repo:          repo,
		Generator:     gen,
		Archive:       archive,
		MaxConcurrent: int64(cfg.Scanner.MaxConcurrent),
	})

	// janitor hapus scan lama kalau store-nya support
	if purger, ok := repo.(domain.Purger); ok && cfg.Scanner.RetentionDays > 0 {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				cutoff := time.Now().AddDate(0, 0, -cfg.Scanner.RetentionDays)
				n, err := purger.DeleteOlderThan(ctx, cutoff)
				if err != nil {
					log.Printf("scan cleanup error: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("scan cleanup: removed %d old scans", n)
				}
			}
		}()
	}

	// init router
	mux := httpserver.NewRouter(svc, httpserver.Options{
		HealthCheckers: checkers,
		RateLimit:      60,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	// tunggu scan yang masih jalan
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Println("timed out waiting for running scans")
	}
}
