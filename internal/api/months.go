package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finhub/internal/analytics"
	"finhub/internal/model"
	"finhub/internal/store"
)

type monthsResponse struct {
	Driver string            `json:"driver"`
	Items  []store.MonthStat `json:"items"`
}

// ListMonths 获取已持久化的月份（按日历顺序）
// GET /api/months
func (h *Handler) ListMonths(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusOK, monthsResponse{Items: []store.MonthStat{}})
		return
	}

	items, err := h.results.ListAvailableMonths(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, monthsResponse{
		Driver: h.results.Driver(),
		Items:  sortMonthStats(items, h.opts.Importer.DateConfig),
	})
}

func sortMonthStats(items []store.MonthStat, cfg model.DateConfig) []store.MonthStat {
	byMonth := make(map[string]store.MonthStat, len(items))
	labels := make([]string, 0, len(items))
	for _, it := range items {
		byMonth[it.Month] = it
		labels = append(labels, it.Month)
	}

	out := make([]store.MonthStat, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, m := range analytics.SortedMonths(labels, cfg) {
		out = append(out, byMonth[m])
		seen[m] = true
	}
	// 无法解析的标签排在最后
	for _, it := range items {
		if !seen[it.Month] {
			out = append(out, it)
		}
	}
	return out
}
