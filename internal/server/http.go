package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleetsight/telemetry-agent/internal/config"
	"github.com/fleetsight/telemetry-agent/internal/server/middlewares"
)

const apiV1 string = "/api/v1"

type Server struct {
	srv *http.Server
}

func NewServer(cfg *config.Configuration, registerHandlerFn func(router *gin.RouterGroup)) (*Server, error) {
	gin.SetMode(gin.DebugMode)
	if cfg.Server.Mode == string(config.ServerModeProd) {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	if cfg.Server.Mode == string(config.ServerModeProd) {
		// Serve the built frontend next to the API.
		engine.Static("/static", cfg.Server.StaticsFolder)
		engine.StaticFile("/", path.Join(cfg.Server.StaticsFolder, "index.html"))
		engine.StaticFile("/favicon.ico", path.Join(cfg.Server.StaticsFolder, "favicon.ico"))

		engine.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{
					"error": "API endpoint not found",
				})
				return
			}
			c.File(path.Join(cfg.Server.StaticsFolder, "index.html"))
		})
	}

	router := engine.Group(apiV1)
	router.Use(
		middlewares.Logger(),
		ginzap.RecoveryWithZap(zap.S().Desugar(), true),
	)

	registerHandlerFn(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Server.HTTPPort),
		Handler: engine,
	}

	return &Server{srv: srv}, nil
}

// Start blocks serving HTTP until the listener fails or the server is shut down.
func (r *Server) Start(ctx context.Context) error {
	zap.S().Named("http").Infow("listening", "addr", r.srv.Addr)
	if err := r.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (r *Server) Stop(ctx context.Context) {
	if err := r.srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("server shutdown", "error", err)
	}
}
