package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"finhub/internal/api"
	"finhub/internal/config"
	"finhub/internal/importer"
	"finhub/internal/service/archive"
	jobstore "finhub/internal/service/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	handler *api.Handler

	mu   sync.Mutex
	http *http.Server
}

// NewServer 创建服务器；results 与 arch 可为 nil
func NewServer(cfg *config.AppConfig, jobs *jobstore.JobStore, results api.ResultStore, arch *archive.Archive) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(jobs, results, api.Options{
		Importer: importer.Options{
			DateConfig:     cfg.DateConfig(),
			BusinessConfig: cfg.BusinessConfig(),
		},
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Archive:        arch,
	})

	s := &Server{
		router:  gin.Default(),
		handler: handler,
	}
	// multipart 内存上限与上传上限一致
	s.router.MaxMultipartMemory = cfg.MaxUploadBytes()

	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := s.router.Group("/api")
	{
		s.handler.RegisterRoutes(group)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Downloads 导出下载令牌存储，供定时清理
func (s *Server) Downloads() interface{ PurgeExpired(time.Time) int } {
	return s.handler.Downloads()
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并取消处理中的任务
func (s *Server) Shutdown(ctx context.Context) error {
	s.handler.Shutdown()

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown: %v", err)
		return err
	}
	return nil
}
