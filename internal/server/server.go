package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 5 * time.Second

// Config holds HTTP server settings.
type Config struct {
	Port          string
	WebhookSecret string
	Development   bool
	QueueSize     int
}

// Server receives Telegram webhook updates and exposes health and metrics.
type Server struct {
	srv     *http.Server
	router  *gin.Engine
	secret  string
	updates chan tgbotapi.Update
	logger  *zap.Logger

	// mu guards closing updates against in-flight webhook sends.
	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	stopOnce sync.Once
}

func New(cfg Config, registry *prometheus.Registry, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}

	s := &Server{
		router:  gin.New(),
		secret:  cfg.WebhookSecret,
		updates: make(chan tgbotapi.Update, cfg.QueueSize),
		logger:  logger.Named("http"),
		done:    make(chan struct{}),
	}

	s.router.Use(requestLogger(s.logger))
	s.router.Use(gin.Recovery())

	s.router.GET("/", health)
	s.router.HEAD("/", health)
	s.router.POST("/webhook/:secret", s.webhook)
	if registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	s.srv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Updates delivers accepted webhook updates. It is closed when Run returns.
func (s *Server) Updates() <-chan tgbotapi.Update {
	return s.updates
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.closeQueue()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	s.stopAccepting()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) stopAccepting() {
	s.stopOnce.Do(func() { close(s.done) })
}

// closeQueue closes updates once no webhook handler can send on it, even if
// Shutdown gave up on handlers that were still running.
func (s *Server) closeQueue() {
	s.stopAccepting()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.updates)
	}
}

func health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) webhook(c *gin.Context) {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(s.secret)) != 1 {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	select {
	case s.updates <- update:
		c.Status(http.StatusOK)
	case <-s.done:
		c.AbortWithStatus(http.StatusServiceUnavailable)
	case <-c.Request.Context().Done():
		c.AbortWithStatus(http.StatusServiceUnavailable)
	}
}

// requestLogger logs the matched route rather than the raw path so the
// webhook secret stays out of the logs.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		fields := []zapcore.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, zap.String("error", msg))
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.Error("request handled", fields...)
		case statusCode >= http.StatusBadRequest:
			logger.Warn("request handled", fields...)
		default:
			logger.Debug("request handled", fields...)
		}
	}
}
