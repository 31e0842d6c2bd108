package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"finhub/internal/exporter"
	"finhub/internal/importer"
	"finhub/internal/model"
	"finhub/internal/service/archive"
	jobstore "finhub/internal/service/store"
	"finhub/internal/store"
)

// ResultStore 结果持久化存储（sqlite 或 postgres）
type ResultStore interface {
	Driver() string
	Ping(ctx context.Context) error
	SaveResult(ctx context.Context, jobID, fileName string, result *model.ProcessingResult) (int, error)
	ListAvailableMonths(ctx context.Context) ([]store.MonthStat, error)
	CountFinancialData(ctx context.Context) (int, error)
}

// Options 处理器配置
type Options struct {
	Importer       importer.Options
	MaxUploadBytes int64
	// PollInterval SSE 轮询任务状态的间隔
	PollInterval time.Duration
	// DownloadTTL 导出下载链接有效期
	DownloadTTL time.Duration
	// Archive 上传与报告归档，可为 nil
	Archive *archive.Archive
}

// Handler API 处理器
type Handler struct {
	jobs        *jobstore.JobStore
	results     ResultStore
	coordinator *importer.Coordinator
	exporter    *exporter.Exporter
	downloads   *exportDownloadStore
	opts        Options

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewHandler 创建 API 处理器；results 可为 nil（不支持持久化）
func NewHandler(jobs *jobstore.JobStore, results ResultStore, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = 10 * time.Minute
	}
	return &Handler{
		jobs:        jobs,
		results:     results,
		coordinator: importer.NewCoordinator(jobs, opts.Importer),
		exporter:    exporter.NewExporter(opts.Importer.DateConfig),
		downloads:   newExportDownloadStore(),
		opts:        opts,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	// 已持久化月份
	router.GET("/months", h.ListMonths)

	// 上传与进度
	router.POST("/upload", h.Upload)
	router.GET("/progress/:jobId", h.GetProgress)

	// 任务
	router.GET("/jobs", h.ListJobs)
	router.GET("/jobs/:jobId/stream", h.StreamProgress)
	router.GET("/jobs/:jobId/result", h.GetResult)
	router.POST("/jobs/:jobId/persist", h.Persist)
	router.GET("/jobs/:jobId/periods", h.GetPeriods)
	router.DELETE("/jobs/:jobId", h.DeleteJob)

	// 数据导出
	router.GET("/jobs/:jobId/export", h.Export)
	router.POST("/jobs/:jobId/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}

// Downloads 导出下载令牌存储，供定时清理使用
func (h *Handler) Downloads() interface{ PurgeExpired(time.Time) int } {
	return h.downloads
}

// Shutdown 取消所有处理中的任务
func (h *Handler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.cancels {
		cancel()
		delete(h.cancels, id)
	}
}

func (h *Handler) track(jobID string, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancels[jobID] = cancel
}

func (h *Handler) untrack(jobID string) context.CancelFunc {
	h.mu.Lock()
	defer h.mu.Unlock()
	cancel := h.cancels[jobID]
	delete(h.cancels, jobID)
	return cancel
}

// lookupJob 读取任务，不存在时直接写 404
func (h *Handler) lookupJob(c *gin.Context) (jobstore.Job, bool) {
	job, err := h.jobs.Get(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return jobstore.Job{}, false
	}
	return job, true
}

// finishedResult 读取已结束任务的结果；处理中返回 409
func (h *Handler) finishedResult(c *gin.Context) (jobstore.Job, bool) {
	job, ok := h.lookupJob(c)
	if !ok {
		return job, false
	}
	if job.Status == jobstore.JobProcessing || job.Result == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "job still processing",
			"progress": job.Progress,
		})
		return job, false
	}
	return job, true
}
