package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	jobstore "finhub/internal/service/store"
)

// GetProgress 获取任务最新进度
// GET /api/progress/:jobId
func (h *Handler) GetProgress(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs 列出任务（按创建时间倒序）
// GET /api/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	jobs := h.jobs.List()
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	c.JSON(http.StatusOK, gin.H{"items": jobs})
}

// StreamProgress 以 SSE 推送进度快照，直到任务结束或客户端断开
// GET /api/jobs/:jobId/stream
func (h *Handler) StreamProgress(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(j jobstore.Job) {
		b, err := json.Marshal(j)
		if err != nil {
			return
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(job)
	last := job.UpdatedAt
	if job.Status != jobstore.JobProcessing {
		return
	}

	ticker := time.NewTicker(h.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			cur, err := h.jobs.Get(job.ID)
			if err != nil {
				fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\":%q}\n\n", err.Error())
				flusher.Flush()
				return
			}
			if cur.UpdatedAt.Equal(last) {
				continue
			}
			last = cur.UpdatedAt
			send(cur)
			if cur.Status != jobstore.JobProcessing {
				return
			}
		}
	}
}
