package store

import (
	"errors"
	"sync"
	"time"

	"finhub/internal/model"
)

// ErrJobNotFound 任务不存在
var ErrJobNotFound = errors.New("job not found")

// JobStatus 任务状态
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobError      JobStatus = "error"
)

// Job 任务快照
type Job struct {
	ID         string                   `json:"jobId"`
	FileName   string                   `json:"fileName"`
	FileSize   int64                    `json:"fileSize"`
	Status     JobStatus                `json:"status"`
	Progress   model.ProcessingProgress `json:"progress"`
	Result     *model.ProcessingResult  `json:"-"`
	Error      string                   `json:"error,omitempty"`
	CreatedAt  time.Time                `json:"createdAt"`
	UpdatedAt  time.Time                `json:"updatedAt"`
	FinishedAt time.Time                `json:"finishedAt,omitempty"`
}

// JobStore 内存任务存储：按任务 ID 保存最新进度与最终结果
// 进度为覆盖式；进入终止阶段后结果不再变化，直到被清理
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
	now  func() time.Time
}

// NewJobStore 创建任务存储；ttl 为终止后保留时长，0 表示不过期
func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create 登记新任务
func (s *JobStore) Create(id, fileName string, fileSize int64) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &Job{
		ID:       id,
		FileName: fileName,
		FileSize: fileSize,
		Status:   JobProcessing,
		Progress: model.ProcessingProgress{
			Stage:    model.StageReading,
			Progress: 0,
			Message:  "Queued",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[id] = job
	return *job
}

// SetProgress 写入最新进度快照（实现 importer.ProgressSink），未登记的任务被忽略
func (s *JobStore) SetProgress(id string, p model.ProcessingProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 已删除的任务不再复活
	job, ok := s.jobs[id]
	if !ok || job.Progress.Stage.IsTerminal() {
		return
	}
	if !p.Stage.IsTerminal() && p.Progress < job.Progress.Progress {
		p.Progress = job.Progress.Progress
	}

	job.Progress = p
	job.UpdatedAt = s.now()
	switch p.Stage {
	case model.StageComplete:
		job.Status = JobDone
		job.FinishedAt = job.UpdatedAt
	case model.StageError:
		job.Status = JobError
		job.Error = p.Message
		job.FinishedAt = job.UpdatedAt
	}
}

// SetResult 写入最终结果（实现 importer.ResultSink），只接受一次
func (s *JobStore) SetResult(id string, result *model.ProcessingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Result != nil || result == nil {
		return
	}
	job.Result = result
	job.UpdatedAt = s.now()
	if job.FinishedAt.IsZero() {
		job.FinishedAt = job.UpdatedAt
	}
	if result.Success {
		job.Status = JobDone
	} else {
		job.Status = JobError
		job.Error = result.Error
	}
}

// Get 获取任务快照
func (s *JobStore) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// List 获取全部任务快照
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

// Delete 删除任务
func (s *JobStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Count 任务数量
func (s *JobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// PurgeExpired 清理终止时间早于 now-ttl 的任务，返回清理数量
// 处理中的任务不清理
func (s *JobStore) PurgeExpired(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, job := range s.jobs {
		if job.FinishedAt.IsZero() {
			continue
		}
		if now.Sub(job.FinishedAt) > s.ttl {
			delete(s.jobs, id)
			purged++
		}
	}
	return purged
}
