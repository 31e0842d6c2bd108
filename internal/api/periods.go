package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finhub/internal/analytics"
)

// GetPeriods 按周期分组月份并汇总各工作表数值
// GET /api/jobs/:jobId/periods?period=quarter
func (h *Handler) GetPeriods(c *gin.Context) {
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	cfg := h.opts.Importer.DateConfig
	c.JSON(http.StatusOK, gin.H{
		"period":  period,
		"periods": analytics.GroupMonthsByPeriod(job.Result.MonthColumns, period, cfg),
		"totals":  analytics.SummarizeByPeriod(job.Result.UnpivotedData, period, cfg),
	})
}
