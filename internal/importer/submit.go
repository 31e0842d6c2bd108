package importer

import (
	"context"

	"finhub/internal/model"
)

// Submit 在后台 goroutine 中执行处理
// 返回的通道只发送一次最终结果随后关闭；sink 同时实现 ResultSink 时结果也写入 sink
func (c *Coordinator) Submit(ctx context.Context, jobID string, data []byte) <-chan *model.ProcessingResult {
	done := make(chan *model.ProcessingResult, 1)

	go func() {
		defer close(done)
		result := c.Process(ctx, jobID, data)
		if rs, ok := c.sink.(ResultSink); ok {
			rs.SetResult(jobID, result)
		}
		done <- result
	}()

	return done
}
