package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"finhub/internal/store"
)

// GetResult 获取任务最终结果
// GET /api/jobs/:jobId/result
func (h *Handler) GetResult(c *gin.Context) {
	job, ok := h.finishedResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job.Result)
}

// Persist 将校验通过的窄表数据写入数据库
// POST /api/jobs/:jobId/persist
func (h *Handler) Persist(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not configured"})
		return
	}

	job, ok := h.finishedResult(c)
	if !ok {
		return
	}
	if !job.Result.Success {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": job.Result.Error})
		return
	}
	if !job.Result.Validation.IsValid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "validation failed, result cannot be persisted",
			"validation": job.Result.Validation,
		})
		return
	}

	n, err := h.results.SaveResult(c.Request.Context(), job.ID, job.FileName, job.Result)
	if errors.Is(err, store.ErrAlreadyPersisted) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("[api] job %s persist failed: %v", job.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist result"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":   job.ID,
		"records": n,
		"driver":  h.results.Driver(),
	})
}

// DeleteJob 取消（如仍在处理）并删除任务
// DELETE /api/jobs/:jobId
func (h *Handler) DeleteJob(c *gin.Context) {
	jobID := c.Param("jobId")
	if cancel := h.untrack(jobID); cancel != nil {
		cancel()
	}
	if err := h.jobs.Delete(jobID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
