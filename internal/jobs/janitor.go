package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPurgeSchedule 默认清理周期
const DefaultPurgeSchedule = "@every 1m"

// Purger 可按时间清理过期条目的存储
type Purger interface {
	PurgeExpired(now time.Time) int
}

// Janitor 定时清理已结束任务的保留槽位与过期的导出文件
type Janitor struct {
	targets  []Purger
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

// NewJanitor 创建清理器；schedule 为空时使用默认周期
func NewJanitor(schedule string, targets ...Purger) *Janitor {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}
	return &Janitor{
		targets:  targets,
		schedule: schedule,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start 注册并启动定时任务
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce() }); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()
	log.Printf("[jobs] janitor started, schedule %s", j.schedule)
	return nil
}

// RunOnce 立即执行一次清理，返回清理总数
func (j *Janitor) RunOnce() int {
	now := j.now()
	total := 0
	for _, t := range j.targets {
		total += t.PurgeExpired(now)
	}
	if total > 0 {
		log.Printf("[jobs] purged %d expired entries", total)
	}
	return total
}

// Stop 停止定时任务并等待正在执行的清理结束
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	log.Println("[jobs] janitor stopped")
}
