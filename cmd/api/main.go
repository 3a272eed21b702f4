package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowdraw-ai/flowdraw-backend/config"
	"github.com/flowdraw-ai/flowdraw-backend/internal/auth"
	"github.com/flowdraw-ai/flowdraw-backend/internal/bootstrap"
	"github.com/flowdraw-ai/flowdraw-backend/internal/diagrams"
	"github.com/flowdraw-ai/flowdraw-backend/internal/export"
	"github.com/flowdraw-ai/flowdraw-backend/internal/generation"
	"github.com/flowdraw-ai/flowdraw-backend/internal/maintenance"
	"github.com/flowdraw-ai/flowdraw-backend/internal/projects"
	"github.com/flowdraw-ai/flowdraw-backend/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	sqlDB, err := bootstrap.OpenSQLDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("postgres (sql): %v", err)
	}
	defer sqlDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	var verifier auth.TokenVerifier
	if cfg.Firebase.CredentialsPath != "" {
		client, err := auth.NewFirebaseAuth(ctx, cfg.Firebase.CredentialsPath)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		verifier = client
	} else if cfg.App.Environment == "production" {
		log.Fatal("FIREBASE_CREDENTIALS_PATH is required in production")
	} else {
		log.Println("firebase credentials not set, using X-Dev-User auth")
	}

	compiler, err := render.NewChromeCompiler(cfg.Renderer.MermaidJSPath, cfg.Renderer.RenderTimeout)
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}
	rasterizer, err := export.NewChromeRasterizer(cfg.Renderer.RenderTimeout)
	if err != nil {
		log.Fatalf("rasterizer: %v", err)
	}

	var generator diagrams.Generator
	if cfg.Gemini.APIKey != "" {
		gen, err := generation.NewClient(ctx, generation.Options{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
			RPS:    cfg.Gemini.GenerateRPS,
			Burst:  cfg.Gemini.GenerateBurst,
		})
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		generator = gen
	} else {
		log.Println("GEMINI_API_KEY not set, AI assistance disabled")
	}

	sched := maintenance.NewScheduler(
		diagrams.NewRepo(db),
		projects.NewRepo(db),
		maintenance.DefaultRetention,
	)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	defer sched.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Cfg:        cfg,
		DB:         db,
		SQLDB:      sqlDB,
		Redis:      rdb,
		Verifier:   verifier,
		Compiler:   compiler,
		Rasterizer: rasterizer,
		Generator:  generator,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
