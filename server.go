package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/sync/errgroup"

	game "github.com/CodeAndHammer/blackbox/internal/game"
	handlers "github.com/CodeAndHammer/blackbox/internal/handlers"
	levels "github.com/CodeAndHammer/blackbox/internal/levels"
	models "github.com/CodeAndHammer/blackbox/internal/models"
	session "github.com/CodeAndHammer/blackbox/internal/session"
	util "github.com/CodeAndHammer/blackbox/internal/util"
)

type server struct {
	cfg  Config
	app  *models.App
	game *game.Controller
}

func newServer(cfg Config) (*server, error) {
	catalog, err := levels.Default()
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}
	controller, err := game.NewController(catalog)
	if err != nil {
		return nil, err
	}
	util.LogInfo("Loaded %d levels", catalog.Count())

	app := &models.App{
		Sessions:       make(map[string]*models.SessionEntry),
		LimiterMap:     make(map[string]*models.RateLimiterEntry),
		IsProduction:   cfg.IsProduction(),
		StartTime:      time.Now(),
		CookieMaxAge:   cfg.CookieMaxAge,
		StaticCacheAge: cfg.StaticCacheAge,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RateLimiterTTL: cfg.RateLimiterTTL,
		LimiterSoftCap: cfg.LimiterSoftCap,
		LimiterHardCap: cfg.LimiterHardCap,
		SessionTimeout: cfg.SessionTTL,
	}
	return &server{cfg: cfg, app: app, game: controller}, nil
}

// assetDirs picks the template and static directories. Production serves
// the built dist/ tree when it exists.
func (s *server) assetDirs() (tplDir, staticDir string) {
	if s.cfg.TemplateDir != "" {
		return s.cfg.TemplateDir, filepath.Join(filepath.Dir(s.cfg.TemplateDir), "static")
	}
	if s.app.IsProduction && util.DirExists("dist") {
		util.LogInfo("Serving assets from dist/ directory")
		return filepath.Join("dist", "templates"), filepath.Join("dist", "static")
	}
	util.LogInfo("Serving development assets from source directories")
	return "templates", "static"
}

func loadTemplates(dir string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"hasPrefix": strings.HasPrefix,
		"dict":      dict,
	}
	rootPattern := filepath.ToSlash(filepath.Join(dir, "*.html"))
	partialsPattern := filepath.ToSlash(filepath.Join(dir, "partials", "*.html"))

	master := template.New("").Funcs(funcMap)
	if _, err := master.ParseGlob(rootPattern); err != nil {
		return nil, fmt.Errorf("parse root templates: %w", err)
	}
	if _, err := master.ParseGlob(partialsPattern); err != nil {
		return nil, fmt.Errorf("parse partial templates: %w", err)
	}
	return master, nil
}

// dict builds a map from key/value pairs so partials can take arguments.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

func (s *server) router() (*gin.Engine, error) {
	if s.app.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLoggerMiddleware())
	router.Use(securityHeadersMiddleware())

	router.Use(s.csrfMiddleware())
	router.Use(s.validateCSRFMiddleware())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		s.applyCacheHeaders(c)
	})

	tplDir, staticDir := s.assetDirs()
	master, err := loadTemplates(tplDir)
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(master)
	if util.DirExists(staticDir) {
		router.Static("/static", staticDir)
	}

	handlers.New(s.app, s.game).Register(router, s.rateLimitMiddleware())
	return router, nil
}

func (s *server) applyCacheHeaders(c *gin.Context) {
	if s.app.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(s.app.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

// run serves until ctx is cancelled or a shutdown signal arrives, then
// drains connections and stops the sweepers.
func (s *server) run(ctx context.Context) error {
	router, err := s.router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		util.LogInfo("Server starting on http://localhost:%s", s.cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		session.RunSessionCleanup(gctx, s.app, s.cfg.SessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		s.runLimiterCleanup(gctx, s.cfg.LimiterSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		util.LogInfo("Shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	util.LogInfo("Server shutdown complete")
	return err
}
