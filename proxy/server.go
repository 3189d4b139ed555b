package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aouyang1/memoryframe/api/models"
	"github.com/aouyang1/memoryframe/util"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPresignTTL   = time.Hour
	defaultContentType  = "application/octet-stream"
	deleteConcurrency   = 16
	longCacheControl    = "public, max-age=31536000"
	shutdownGracePeriod = 10 * time.Second
)

type Options struct {
	PresignTTL     time.Duration
	MaxUploadBytes int64
}

type Server struct {
	router   *gin.Engine
	store    ObjectStore
	verifier TokenVerifier
	opts     Options
	metrics  *metrics
	logger   *zap.Logger
}

// NewServer wires the proxy routes. A nil verifier rejects every authenticated
// route with 403.
func NewServer(store ObjectStore, verifier TokenVerifier, opts Options, reg *prometheus.Registry, logger *zap.Logger) *Server {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = DefaultPresignTTL
	}

	s := &Server{
		router:   gin.New(),
		store:    store,
		verifier: verifier,
		opts:     opts,
		metrics:  newMetrics(reg),
		logger:   logger.Named("proxy"),
	}

	s.router.Use(gin.Recovery(), corsMiddleware(), util.RequestLogger(s.logger), s.countRequests())
	s.setupRoutes(reg)
	return s
}

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	s.router.GET("/", s.handleHealth)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	s.router.GET("/proxy", s.handleProxy)

	authed := s.router.Group("/", s.authenticate())
	authed.PUT("/upload", s.handleUpload)
	authed.GET("/sign-upload", s.handleSignUpload)
	authed.POST("/sign-upload", s.handleSignUpload)
	authed.DELETE("/delete", s.handleDelete)
	authed.DELETE("/delete-prefix", s.handleDeletePrefix)
	authed.GET("/reconcile", s.handleReconcile)
	authed.POST("/cleanup", s.handleCleanup)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not Found or Method Not Allowed"})
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("upload proxy listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("upload proxy stopped: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.metrics.authFailures.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
			return
		}

		if s.verifier == nil {
			s.metrics.authFailures.WithLabelValues("unconfigured").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "Forbidden"})
			return
		}

		claims, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			s.metrics.authFailures.WithLabelValues("invalid").Inc()
			s.logger.Debug("rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Error: "Forbidden"})
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Message: "R2 Upload Proxy Active"})
}

func (s *Server) handleProxy(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing key"})
		return
	}

	obj, err := s.store.Get(c.Request.Context(), key, c.GetHeader("Range"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	extra := map[string]string{
		"Accept-Ranges": "bytes",
		"Cache-Control": longCacheControl,
	}
	if obj.ETag != "" {
		extra["ETag"] = obj.ETag
	}

	status := http.StatusOK
	if obj.ContentRange != "" {
		status = http.StatusPartialContent
		extra["Content-Range"] = obj.ContentRange
	}

	c.DataFromReader(status, obj.Size, contentType, obj.Body, extra)
}

func (s *Server) handleUpload(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing key"})
		return
	}

	limit := s.opts.MaxUploadBytes
	if limit > 0 && c.Request.ContentLength > limit {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error: fmt.Sprintf("upload exceeds %d bytes", limit),
		})
		return
	}

	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	var body io.Reader = c.Request.Body
	if limit > 0 {
		body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	counted := &countingReader{r: body}

	if err := s.store.Put(c.Request.Context(), key, contentType, counted); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(counted.err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error: fmt.Sprintf("upload exceeds %d bytes", limit),
			})
			return
		}
		s.storeError(c, err)
		return
	}

	s.metrics.uploadedBytes.Add(float64(counted.n))
	c.JSON(http.StatusOK, models.UploadResponse{Success: true, Key: key, Size: counted.n})
}

func (s *Server) handleSignUpload(c *gin.Context) {
	var req models.SignUploadRequest
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
			return
		}
	}
	if key := c.Query("key"); key != "" {
		req.Key = key
	}
	if contentType := c.Query("contentType"); contentType != "" {
		req.ContentType = contentType
	}
	if req.Key == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing key"})
		return
	}

	url, err := s.store.PresignPut(c.Request.Context(), req.Key, req.ContentType, s.opts.PresignTTL)
	if err != nil {
		s.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SignUploadResponse{
		URL:       url,
		Key:       req.Key,
		ExpiresIn: int(s.opts.PresignTTL.Seconds()),
		Method:    http.MethodPut,
	})
}

func (s *Server) handleDelete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing key"})
		return
	}
	ctx := c.Request.Context()

	var size int64
	info, err := s.store.Head(ctx, key)
	switch {
	case err == nil:
		size = info.Size
	case errors.Is(err, ErrNotFound):
		// deleting a missing object still succeeds, with nothing reclaimed
	default:
		s.storeError(c, err)
		return
	}

	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.storeError(c, err)
		return
	}
	if info.Key != "" {
		s.metrics.deleted(1, size)
	}

	c.JSON(http.StatusOK, models.DeleteResponse{Success: true, Message: "Deleted", Size: size})
}

func (s *Server) handleDeletePrefix(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing prefix"})
		return
	}

	var result batchResult
	err := s.walk(c.Request.Context(), prefix, func(objs []ObjectInfo) {
		result.add(s.deleteAll(c.Request.Context(), objs))
	})
	if err != nil {
		s.logger.Error("delete prefix stopped", zap.String("prefix", prefix),
			zap.Int("deleted", result.count), zap.Error(err))
		s.storeError(c, err)
		return
	}

	failed := result.failed
	if failed == nil {
		failed = []string{}
	}

	c.JSON(http.StatusOK, models.DeletePrefixResponse{
		Success:   len(failed) == 0,
		Message:   fmt.Sprintf("Deleted folder: %s", prefix),
		Count:     result.count,
		TotalSize: result.bytes,
		Failed:    failed,
	})
}

func (s *Server) handleReconcile(c *gin.Context) {
	prefix := c.Query("prefix")
	if prefix == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing prefix"})
		return
	}

	resp := models.ReconcileResponse{Prefix: prefix}
	err := s.walk(c.Request.Context(), prefix, func(objs []ObjectInfo) {
		for _, obj := range objs {
			resp.Count++
			resp.TotalSize += obj.Size
		}
	})
	if err != nil {
		s.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCleanup(c *gin.Context) {
	var req models.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if req.Prefix == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing prefix"})
		return
	}

	keep := mapset.NewThreadUnsafeSet(req.Keep...)
	var (
		result batchResult
		kept   int
	)
	err := s.walk(c.Request.Context(), req.Prefix, func(objs []ObjectInfo) {
		orphans := make([]ObjectInfo, 0, len(objs))
		for _, obj := range objs {
			if keep.Contains(obj.Key) {
				kept++
				continue
			}
			orphans = append(orphans, obj)
		}
		result.add(s.deleteAll(c.Request.Context(), orphans))
	})
	if err != nil {
		s.logger.Error("cleanup stopped", zap.String("prefix", req.Prefix),
			zap.Int("deleted", result.count), zap.Error(err))
		s.storeError(c, err)
		return
	}

	failed := result.failed
	if failed == nil {
		failed = []string{}
	}
	s.logger.Info("cleanup finished", zap.String("prefix", req.Prefix),
		zap.Int("deleted", result.count), zap.Int("kept", kept), zap.Int64("reclaimed", result.bytes))

	c.JSON(http.StatusOK, models.CleanupResponse{
		Deleted:        result.count,
		Kept:           kept,
		ReclaimedBytes: result.bytes,
		Failed:         failed,
	})
}

// walk pages through every object under prefix in listing order. Pages are handled
// one at a time.
func (s *Server) walk(ctx context.Context, prefix string, fn func([]ObjectInfo)) error {
	cursor := ""
	for {
		page, err := s.store.List(ctx, prefix, cursor)
		if err != nil {
			return err
		}
		fn(page.Objects)
		if page.Next == "" {
			return nil
		}
		cursor = page.Next
	}
}

type batchResult struct {
	count  int
	bytes  int64
	failed []string
}

func (r *batchResult) add(o batchResult) {
	r.count += o.count
	r.bytes += o.bytes
	r.failed = append(r.failed, o.failed...)
}

// deleteAll deletes objs in parallel. A failed delete is reported, not retried.
func (s *Server) deleteAll(ctx context.Context, objs []ObjectInfo) batchResult {
	var (
		mu     sync.Mutex
		result batchResult
		g      errgroup.Group
	)
	g.SetLimit(deleteConcurrency)

	for _, obj := range objs {
		g.Go(func() error {
			err := s.store.Delete(ctx, obj.Key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("failed to delete object", zap.String("key", obj.Key), zap.Error(err))
				result.failed = append(result.failed, obj.Key)
				return nil
			}
			result.count++
			result.bytes += obj.Size
			return nil
		})
	}
	_ = g.Wait()

	s.metrics.deleted(result.count, result.bytes)
	return result
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "File Not Found"})
	case errors.Is(err, ErrInvalidRange):
		c.JSON(http.StatusRequestedRangeNotSatisfiable, models.ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
}

type countingReader struct {
	r   io.Reader
	n   int64
	err error
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	if err != nil && err != io.EOF {
		cr.err = err
	}
	return n, err
}
