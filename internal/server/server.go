package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-intake/config"
	"resume-intake/internal/handler"
	"resume-intake/internal/middleware"
	"resume-intake/internal/services"
	"resume-intake/internal/transport/httpdto"
	"resume-intake/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Submission *handler.SubmissionHandler
	Health     *handler.HealthHandler
}

// Dependencies are the optional collaborators of the router. A nil Limiter
// disables upload rate limiting; a nil Gatherer hides /metrics.
type Dependencies struct {
	Limiter  middleware.UploadLimiter
	Gatherer prometheus.Gatherer
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(middleware.RecoveryMiddleware(l))
	engine.MaxMultipartMemory = 8 << 20

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			// Leave room for a full upload including storage retries.
			WriteTimeout: cfg.Upload.Timeout + 10*time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, deps Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})
	s.engine.GET("/health", handlers.Health.Deep)

	if deps.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	uploadLimit := s.config.Upload.MaxBytes + middleware.MultipartOverhead

	api := s.engine.Group("/api")
	{
		api.POST("/upload",
			middleware.UploadRateLimitMiddleware(deps.Limiter, s.logger),
			middleware.BodyLimitMiddleware(uploadLimit, services.TooLargeMessage(s.config.Upload.MaxBytes)),
			handlers.Submission.Upload,
		)
		api.GET("/submissions", handlers.Submission.List)
		api.GET("/health", handlers.Health.Static)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
