package bootstrap

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/flowdraw-ai/flowdraw-backend/config"
	httpapi "github.com/flowdraw-ai/flowdraw-backend/internal/api/http"
	"github.com/flowdraw-ai/flowdraw-backend/internal/api/http/middleware"
	"github.com/flowdraw-ai/flowdraw-backend/internal/auth"
	"github.com/flowdraw-ai/flowdraw-backend/internal/cache"
	"github.com/flowdraw-ai/flowdraw-backend/internal/diagrams"
	"github.com/flowdraw-ai/flowdraw-backend/internal/export"
	"github.com/flowdraw-ai/flowdraw-backend/internal/preview"
	"github.com/flowdraw-ai/flowdraw-backend/internal/projects"
	"github.com/flowdraw-ai/flowdraw-backend/internal/render"
	"github.com/flowdraw-ai/flowdraw-backend/internal/users"
)

// RouterDeps carries everything BuildRouter wires together. Verifier may be
// nil in development, which switches auth to the X-Dev-User header.
type RouterDeps struct {
	Cfg        *config.Config
	DB         *pgxpool.Pool
	SQLDB      *sql.DB
	Redis      *redis.Client
	Verifier   auth.TokenVerifier
	Compiler   render.Compiler
	Rasterizer export.Rasterizer
	Generator  diagrams.Generator
}

func BuildRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Dev-User", middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/healthz", httpapi.Health(d.Cfg.App.Version))
	r.GET("/readyz", httpapi.Ready(d.DB, d.Redis))

	usersRepo := users.NewRepo(d.DB)
	var authMW gin.HandlerFunc
	if d.Verifier != nil {
		authMW = auth.Middleware(d.Verifier, usersRepo)
	} else {
		authMW = auth.DevMiddleware(usersRepo)
	}

	api := r.Group("/api/v1", authMW)

	projects.NewHandler(projects.NewRepo(d.DB)).Register(api)

	svc := diagrams.NewService(diagrams.NewRepo(d.DB), diagrams.NewHistoryRepo(d.SQLDB), d.Generator)
	diagrams.NewHandler(svc).Register(api)

	mgr := preview.NewManager(d.Compiler, render.DefaultDebounce)
	thumbs := cache.NewThumbCache(d.Redis, d.Cfg.Renderer.ThumbCacheTTL)
	preview.NewHandler(mgr, svc, export.NewEncoder(d.Rasterizer), thumbs, d.Compiler).Register(api)

	return r
}
