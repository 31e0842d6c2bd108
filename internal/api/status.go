package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Driver        string `json:"driver"`                  // 持久化驱动
	DatabaseOK    bool   `json:"databaseOk"`              // 数据库是否可用
	Records       int    `json:"records"`                 // 已持久化记录数
	Jobs          int    `json:"jobs"`                    // 内存中的任务数
	RunningJobs   int    `json:"runningJobs"`             // 处理中的任务数
	LastImportJob string `json:"lastImportJob,omitempty"` // 最近一次持久化的任务
}

type lastImportReader interface {
	LastImportJob(ctx context.Context) (string, error)
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	h.mu.Lock()
	running := len(h.cancels)
	h.mu.Unlock()

	resp := StatusResponse{
		Jobs:        h.jobs.Count(),
		RunningJobs: running,
	}

	if h.results != nil {
		ctx := c.Request.Context()
		resp.Driver = h.results.Driver()
		resp.DatabaseOK = h.results.Ping(ctx) == nil
		if resp.DatabaseOK {
			if n, err := h.results.CountFinancialData(ctx); err == nil {
				resp.Records = n
			}
			if lr, ok := h.results.(lastImportReader); ok {
				resp.LastImportJob, _ = lr.LastImportJob(ctx)
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
