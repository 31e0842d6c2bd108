package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"finhub/internal/model"
)

func progress(stage model.Stage, p int) model.ProcessingProgress {
	return model.ProcessingProgress{Stage: stage, Progress: p, Message: string(stage)}
}

// TestNewJobStore 测试创建存储
func TestNewJobStore(t *testing.T) {
	s := NewJobStore(time.Hour)
	if s.Count() != 0 {
		t.Errorf("new store should be empty, got %d jobs", s.Count())
	}
}

// TestCreateAndGet 测试登记与读取
func TestCreateAndGet(t *testing.T) {
	s := NewJobStore(time.Hour)
	s.Create("job-1", "data.xlsx", 1024)

	job, err := s.Get("job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if job.Status != JobProcessing {
		t.Errorf("status = %s, want %s", job.Status, JobProcessing)
	}
	if job.FileName != "data.xlsx" || job.FileSize != 1024 {
		t.Errorf("unexpected job meta: %+v", job)
	}
}

// TestGetNotFound 测试获取不存在的任务
func TestGetNotFound(t *testing.T) {
	s := NewJobStore(time.Hour)
	if _, err := s.Get("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := s.Delete("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound on delete, got %v", err)
	}
}

func TestSetProgressOverwritesAndNeverRegresses(t *testing.T) {
	s := NewJobStore(time.Hour)
	s.Create("job-1", "a.xlsx", 1)

	s.SetProgress("job-1", progress(model.StageParsing, 20))
	s.SetProgress("job-1", progress(model.StageValidatingStructure, 15))

	job, _ := s.Get("job-1")
	if job.Progress.Stage != model.StageValidatingStructure {
		t.Fatalf("stage = %s, want latest snapshot", job.Progress.Stage)
	}
	if job.Progress.Progress != 20 {
		t.Fatalf("progress regressed to %d", job.Progress.Progress)
	}
}

func TestTerminalStageIsFinal(t *testing.T) {
	s := NewJobStore(time.Hour)
	s.Create("job-1", "a.xlsx", 1)

	s.SetProgress("job-1", progress(model.StageComplete, 100))
	s.SetProgress("job-1", progress(model.StageTransforming, 90))
	s.SetProgress("job-1", progress(model.StageError, 0))

	job, _ := s.Get("job-1")
	if job.Progress.Stage != model.StageComplete || job.Status != JobDone {
		t.Fatalf("terminal snapshot changed: %+v", job.Progress)
	}
	if job.FinishedAt.IsZero() {
		t.Fatalf("finishedAt not set")
	}
}

func TestErrorStageKeepsZeroProgress(t *testing.T) {
	s := NewJobStore(time.Hour)
	s.Create("job-1", "a.xlsx", 1)

	s.SetProgress("job-1", progress(model.StageParsing, 20))
	s.SetProgress("job-1", model.ProcessingProgress{Stage: model.StageError, Progress: 0, Message: "boom"})

	job, _ := s.Get("job-1")
	if job.Progress.Progress != 0 {
		t.Fatalf("error progress = %d, want 0", job.Progress.Progress)
	}
	if job.Status != JobError || job.Error != "boom" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestSetResultAcceptedOnce(t *testing.T) {
	s := NewJobStore(time.Hour)
	s.Create("job-1", "a.xlsx", 1)

	first := &model.ProcessingResult{Success: true, MonthColumns: []string{"Jan/25"}}
	second := model.FailedResult("late")
	s.SetResult("job-1", first)
	s.SetResult("job-1", second)

	job, _ := s.Get("job-1")
	if job.Result != first {
		t.Fatalf("result replaced after first write")
	}
	if job.Status != JobDone {
		t.Fatalf("status = %s, want done", job.Status)
	}
}

// TestDeletedJobStaysDeleted 删除后迟到的进度与结果不会重建任务
func TestDeletedJobStaysDeleted(t *testing.T) {
	s := NewJobStore(time.Hour)
	s.Create("job-1", "a.xlsx", 1)
	s.SetProgress("job-1", progress(model.StageParsing, 20))

	if err := s.Delete("job-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	s.SetProgress("job-1", model.ProcessingProgress{Stage: model.StageError, Message: "Processing cancelled"})
	s.SetResult("job-1", model.FailedResult("Processing cancelled"))

	if job, err := s.Get("job-1"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("deleted job is back: %+v", job)
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d, want 0", s.Count())
	}
}

func TestPurgeExpiredKeepsRunningJobs(t *testing.T) {
	s := NewJobStore(time.Minute)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Create("running", "a.xlsx", 1)
	s.Create("done", "b.xlsx", 1)
	s.SetProgress("done", progress(model.StageComplete, 100))

	if n := s.PurgeExpired(base.Add(30 * time.Second)); n != 0 {
		t.Fatalf("purged %d before ttl", n)
	}
	if n := s.PurgeExpired(base.Add(2 * time.Minute)); n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if _, err := s.Get("running"); err != nil {
		t.Fatalf("running job purged: %v", err)
	}
	if _, err := s.Get("done"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("done job not purged")
	}
}

func TestZeroTTLNeverPurges(t *testing.T) {
	s := NewJobStore(0)
	s.Create("job-1", "a.xlsx", 1)
	s.SetProgress("job-1", progress(model.StageComplete, 100))
	if n := s.PurgeExpired(time.Now().Add(24 * time.Hour)); n != 0 {
		t.Fatalf("purged %d with zero ttl", n)
	}
}

// TestConcurrentJobs 多个任务并发写入互不影响
func TestConcurrentJobs(t *testing.T) {
	s := NewJobStore(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("job-%d", i)
		s.Create(id, "a.xlsx", 1)
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for p := 0; p <= 90; p += 10 {
				s.SetProgress(id, progress(model.StageValidatingStructure, p))
				_, _ = s.Get(id)
			}
			s.SetProgress(id, progress(model.StageComplete, 100))
		}(id)
	}
	wg.Wait()

	for _, j := range s.List() {
		if j.Status != JobDone || j.Progress.Progress != 100 {
			t.Fatalf("job %s not complete: %+v", j.ID, j.Progress)
		}
	}
}
