package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"finhub/internal/analytics"
	"finhub/internal/exporter"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Export 直接下载结果 Excel
// GET /api/jobs/:jobId/export?period=quarter
func (h *Handler) Export(c *gin.Context) {
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, ok := h.finishedResult(c)
	if !ok {
		return
	}

	file, err := h.exporter.Export(job.Result, exporter.ExportOptions{SummaryPeriod: period})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(job.FileName))
	c.Header("Content-Type", xlsxContentType)
	if err := file.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		return
	}
}

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/jobs/:jobId/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, ok := h.finishedResult(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}
	fail := func(msg string) {
		send(exportProgressEvent{Type: "error", Message: msg, Data: map[string]any{}, Timestamp: time.Now()})
	}

	send(exportProgressEvent{
		Type:      "start",
		Message:   "export started",
		Data:      map[string]any{"jobId": job.ID, "records": len(job.Result.UnpivotedData)},
		Timestamp: time.Now(),
	})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	file, err := h.exporter.Export(job.Result, exporter.ExportOptions{
		SummaryPeriod: period,
		Progress:      progressFn,
	})
	if err != nil {
		fail("export failed: " + err.Error())
		return
	}
	defer file.Close()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("finhub_export_%s_%d.xlsx", job.ID, time.Now().UnixNano()))
	if err := file.SaveAs(tempPath); err != nil {
		_ = os.Remove(tempPath)
		fail("failed to write export file: " + err.Error())
		return
	}

	token := h.downloads.put(tempPath, job.ID, job.FileName, h.opts.DownloadTTL)
	send(exportProgressEvent{
		Type:    "done",
		Message: "export complete",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": "/api/export/download/" + token,
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download link expired"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "export file not found"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.fileName))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

// buildExportContentDisposition 以上传文件名生成下载文件名，非 ASCII 名称走 filename*
func buildExportContentDisposition(uploadName string) string {
	base := strings.TrimSuffix(filepath.Base(uploadName), filepath.Ext(uploadName))
	if base == "" || base == "." {
		base = "export"
	}
	name := base + "-unpivoted.xlsx"

	ascii := true
	for _, r := range name {
		if r > 127 || r == '"' || r == '\\' {
			ascii = false
			break
		}
	}
	if ascii {
		return fmt.Sprintf("attachment; filename=%q", name)
	}
	return fmt.Sprintf("attachment; filename=\"export-unpivoted.xlsx\"; filename*=UTF-8''%s", url.PathEscape(name))
}
