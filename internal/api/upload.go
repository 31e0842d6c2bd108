package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finhub/internal/service/archive"
	"finhub/internal/validation"
)

// Upload 接收工作簿并在后台处理
// POST /api/upload
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	if !validation.ValidateFileType(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("invalid file type, only %s files are accepted", validation.AcceptedExtension),
		})
		return
	}
	if fh.Size > h.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file too large (%s), limit is %s",
				validation.FormatFileSize(fh.Size), validation.FormatFileSize(h.opts.MaxUploadBytes)),
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.opts.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}
	if int64(len(data)) > h.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	jobID := uuid.NewString()
	h.jobs.Create(jobID, fh.Filename, int64(len(data)))
	log.Printf("[api] job %s created for %s (%s)", jobID, fh.Filename, validation.FormatFileSize(int64(len(data))))

	if h.opts.Archive != nil {
		if err := h.opts.Archive.SaveUpload(jobID, data); err != nil {
			log.Printf("[api] job %s archive upload failed: %v", jobID, err)
		}
	}

	h.start(jobID, fh.Filename, data)

	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}

// start 在后台运行处理流程，任务结束或被取消后释放 cancel
func (h *Handler) start(jobID, fileName string, data []byte) {
	ctx, cancel := context.WithCancel(context.Background())
	h.track(jobID, cancel)

	done := h.coordinator.Submit(ctx, jobID, data)
	go func() {
		result := <-done
		if cancel := h.untrack(jobID); cancel != nil {
			cancel()
		}
		if h.opts.Archive != nil {
			report := archive.NewReport(jobID, fileName, int64(len(data)), result)
			if err := h.opts.Archive.SaveReport(report); err != nil {
				log.Printf("[api] job %s archive report failed: %v", jobID, err)
			}
		}
	}()
}
