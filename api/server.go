// Package api is the main api web server
package api

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aouyang1/memoryframe/api/models"
	"github.com/aouyang1/memoryframe/api/web/templates"
	"github.com/aouyang1/memoryframe/event"
	"github.com/aouyang1/memoryframe/preload"
	"github.com/aouyang1/memoryframe/sequencer"
	"github.com/aouyang1/memoryframe/store"
	"github.com/aouyang1/memoryframe/util"
	"github.com/aouyang1/memoryframe/view"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed web/static/*
var webFiles embed.FS

const (
	driverScript        = "/static/driver.js"
	shutdownGracePeriod = 10 * time.Second
)

type WebServer struct {
	router     *gin.Engine
	db         *store.Database
	preloader  *preload.Preloader
	httpClient *http.Client
	assetBase  *url.URL
	clock      sequencer.Clock
	sessions   *sessionRegistry
	logger     *zap.Logger

	// latest preload run; generation discards reports from superseded runs
	mu            sync.Mutex
	preload       models.PreloadResponse
	generation    int
	cancelPreload context.CancelFunc
}

type Option func(*WebServer)

// WithClock replaces the timer used to pace presentation sessions.
func WithClock(clock sequencer.Clock) Option {
	return func(ws *WebServer) { ws.clock = clock }
}

// WithHTTPClient sets the client used to fetch originals for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(ws *WebServer) { ws.httpClient = client }
}

// WithAssetBase resolves relative photo URLs for downloads.
func WithAssetBase(base *url.URL) Option {
	return func(ws *WebServer) { ws.assetBase = base }
}

func NewWebServer(db *store.Database, preloader *preload.Preloader, logger *zap.Logger, opts ...Option) (*WebServer, error) {
	ws := &WebServer{
		router:     gin.New(),
		db:         db,
		preloader:  preloader,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clock:      sequencer.SystemClock{},
		sessions:   newSessionRegistry(),
		logger:     logger.Named("web"),
	}
	for _, opt := range opts {
		opt(ws)
	}

	if err := ws.setupRoutes(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (ws *WebServer) setupRoutes() error {
	// Create filesystem for static files (strip "web/" prefix)
	staticFS, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}

	ws.router.Use(gin.Recovery(), util.RequestLogger(ws.logger))

	// Serve static files from embedded filesystem
	ws.router.StaticFS("static", http.FS(staticFS))

	ws.router.GET("/", ws.handleIndex)
	ws.router.GET("/health", ws.handleHealth)

	// API routes
	ws.router.GET("/api/config", ws.handleGetConfig)
	ws.router.POST("/api/save-config", ws.handleSaveConfig)
	ws.router.GET("/api/templates", ws.handleListTemplates)
	ws.router.GET("/api/template", ws.handleGetTemplate)
	ws.router.DELETE("/api/template", ws.handleDeleteTemplate)
	ws.router.GET("/api/timeline", ws.handleTimeline)
	ws.router.GET("/api/preload", ws.handlePreload)

	ws.router.GET("/session/events", ws.handleSessionEvents)
	ws.router.POST("/session/:id/advance", ws.handleAdvance)
	ws.router.POST("/session/:id/gallery", ws.handleGalleryAction)

	ws.router.GET("/photos/:index/download", ws.handleDownload)
	return nil
}

func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Run preloads the active configuration's assets and serves until ctx is done.
func (ws *WebServer) Run(ctx context.Context, addr string) error {
	if name, cfg, err := ws.db.GetActive(); err != nil {
		ws.logger.Warn("unable to load active config for preload", zap.Error(err))
	} else {
		ws.refreshPreload(name, cfg)
	}
	defer ws.stopPreload()

	srv := &http.Server{Addr: addr, Handler: ws.router}
	errCh := make(chan error, 1)
	go func() {
		ws.logger.Info("starting web server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}

// activePage builds the view for the active configuration. Tilts are seeded from
// the configuration so every render and session of it agree.
func (ws *WebServer) activePage() (string, *view.Page, error) {
	name, cfg, err := ws.db.GetActive()
	if err != nil {
		return "", nil, fmt.Errorf("failed to load active config: %w", err)
	}
	page := view.Build(cfg, nil)
	return name, &page, nil
}

func (ws *WebServer) handleIndex(c *gin.Context) {
	name, page, err := ws.activePage()
	if err != nil {
		ws.logger.Error("failed to load page", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load page")
		return
	}

	var buf bytes.Buffer
	doc := templates.Document(page, templates.DocumentOptions{ScriptURL: driverScript, ConfigName: name})
	if err := doc.Render(c.Request.Context(), &buf); err != nil {
		ws.logger.Error("failed to render page", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (ws *WebServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}

func (ws *WebServer) handleGetConfig(c *gin.Context) {
	_, cfg, err := ws.db.GetActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (ws *WebServer) handleSaveConfig(c *gin.Context) {
	name := c.DefaultQuery("name", store.DefaultConfigName)
	if !store.ValidName(name) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid config name: %q", name)})
		return
	}

	cfg, err := event.Decode(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ws.db.SaveActive(name, cfg); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	ws.refreshPreload(name, cfg)

	ws.logger.Info("saved config", zap.String("name", name), zap.String("title", cfg.Title))
	c.JSON(http.StatusOK, models.SaveConfigResponse{Name: name, Message: "Configuration saved"})
}

func (ws *WebServer) handleListTemplates(c *gin.Context) {
	summaries, err := ws.db.ListConfigs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	if summaries == nil {
		summaries = []store.ConfigSummary{}
	}
	c.JSON(http.StatusOK, models.TemplateListResponse{Templates: summaries, Total: len(summaries)})
}

func (ws *WebServer) handleGetTemplate(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing name"})
		return
	}

	cfg, err := ws.db.GetConfig(name)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidName):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Template %q not found", name)})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (ws *WebServer) handleDeleteTemplate(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing name"})
		return
	}

	err := ws.db.DeleteConfig(name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Template %q not found", name)})
		return
	case errors.Is(err, store.ErrActive):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: fmt.Sprintf("Template %q is active", name)})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	ws.logger.Info("deleted config", zap.String("name", name))
	c.JSON(http.StatusOK, models.DeleteTemplateResponse{Name: name, Message: "Template deleted"})
}

func (ws *WebServer) handleTimeline(c *gin.Context) {
	_, page, err := ws.activePage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sequencer.Build(page, nil))
}

func (ws *WebServer) handlePreload(c *gin.Context) {
	c.JSON(http.StatusOK, ws.latestPreload())
}

func (ws *WebServer) latestPreload() models.PreloadResponse {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	resp := ws.preload
	resp.Report.Failed = append([]string{}, resp.Report.Failed...)
	return resp
}

// refreshPreload starts preloading cfg's assets, abandoning any run in progress.
func (ws *WebServer) refreshPreload(name string, cfg *event.Config) {
	if ws.preloader == nil {
		return
	}
	page := view.Build(cfg, nil)
	urls := page.AssetURLs()

	ctx, cancel := context.WithCancel(context.Background())
	ws.mu.Lock()
	if ws.cancelPreload != nil {
		ws.cancelPreload()
	}
	ws.cancelPreload = cancel
	ws.generation++
	gen := ws.generation
	ws.preload = models.PreloadResponse{
		Config: name,
		Report: preload.Report{Total: len(urls), StartedAt: time.Now(), Failed: []string{}},
	}
	ws.mu.Unlock()

	go func() {
		defer cancel()
		report := ws.preloader.Preload(ctx, urls, func(percent int) {
			ws.mu.Lock()
			if ws.generation == gen {
				ws.preload.Report.Progress = percent
			}
			ws.mu.Unlock()
		})

		ws.mu.Lock()
		defer ws.mu.Unlock()
		if ws.generation == gen {
			ws.preload.Report = report
		}
	}()
}

func (ws *WebServer) stopPreload() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.cancelPreload != nil {
		ws.cancelPreload()
		ws.cancelPreload = nil
	}
}
