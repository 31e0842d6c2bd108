package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"finhub/internal/model"
)

const (
	uploadFileName = "upload.xlsx"
	reportFileName = "report.json"
)

// ErrInvalidJobID 任务 ID 不能作为目录名
var ErrInvalidJobID = errors.New("invalid job id")

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Report 任务归档摘要
type Report struct {
	JobID        string                 `json:"jobId"`
	FileName     string                 `json:"fileName"`
	FileSize     int64                  `json:"fileSize"`
	Success      bool                   `json:"success"`
	Error        string                 `json:"error,omitempty"`
	Validation   model.ValidationResult `json:"validation"`
	MonthColumns []string               `json:"monthColumns"`
	Records      int                    `json:"records"`
	ArchivedAt   time.Time              `json:"archivedAt"`
}

// NewReport 由处理结果生成摘要
func NewReport(jobID, fileName string, fileSize int64, result *model.ProcessingResult) Report {
	r := Report{
		JobID:      jobID,
		FileName:   fileName,
		FileSize:   fileSize,
		ArchivedAt: time.Now().UTC(),
	}
	if result != nil {
		r.Success = result.Success
		r.Error = result.Error
		r.Validation = result.Validation
		r.MonthColumns = result.MonthColumns
		r.Records = len(result.UnpivotedData)
	}
	return r
}

// Archive 上传文件与处理报告的磁盘归档，按任务分目录
// 目录结构：<dir>/<jobId>/upload.xlsx、<dir>/<jobId>/report.json
type Archive struct {
	mu        sync.Mutex
	dir       string
	retention time.Duration
}

// New 创建归档；retention 为 0 表示不清理
func New(dir string, retention time.Duration) (*Archive, error) {
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archive{dir: dir, retention: retention}, nil
}

func (a *Archive) jobDir(jobID string) (string, error) {
	if !jobIDPattern.MatchString(jobID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	return filepath.Join(a.dir, jobID), nil
}

// SaveUpload 保存上传的工作簿
func (a *Archive) SaveUpload(jobID string, data []byte) error {
	dir, err := a.jobDir(jobID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return writeBytesAtomic(filepath.Join(dir, uploadFileName), data)
}

// SaveReport 保存处理报告
func (a *Archive) SaveReport(report Report) error {
	dir, err := a.jobDir(report.JobID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return writeJSONAtomic(filepath.Join(dir, reportFileName), report)
}

// LoadReport 读取处理报告
func (a *Archive) LoadReport(jobID string) (Report, error) {
	var r Report
	dir, err := a.jobDir(jobID)
	if err != nil {
		return r, err
	}
	if err := readJSON(filepath.Join(dir, reportFileName), &r); err != nil {
		return r, err
	}
	return r, nil
}

// Remove 删除任务归档
func (a *Archive) Remove(jobID string) error {
	dir, err := a.jobDir(jobID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return os.RemoveAll(dir)
}

// PurgeExpired 删除修改时间早于 now-retention 的任务目录
func (a *Archive) PurgeExpired(now time.Time) int {
	if a.retention <= 0 {
		return 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0
	}
	purged := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > a.retention {
			if os.RemoveAll(filepath.Join(a.dir, e.Name())) == nil {
				purged++
			}
		}
	}
	return purged
}
