// Package scheduler 提供进程内的周期任务调度
package scheduler

import (
	"context"
	"time"
)

// TaskFunc 任务执行函数
type TaskFunc func(ctx context.Context) error

// IntervalTask 固定间隔执行的周期任务
type IntervalTask struct {
	name      string
	interval  time.Duration
	timeout   time.Duration
	immediate bool
	fn        TaskFunc
}

// NewIntervalTask 创建固定间隔任务。
// immediate为true时任务在启动后立即执行一次，而不是等待一个完整间隔；
// timeout限制单次执行时长，不大于0时默认为30秒。
func NewIntervalTask(name string, interval time.Duration, immediate bool, timeout time.Duration, fn TaskFunc) *IntervalTask {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &IntervalTask{
		name:      name,
		interval:  interval,
		timeout:   timeout,
		immediate: immediate,
		fn:        fn,
	}
}

// Name 返回任务名称
func (t *IntervalTask) Name() string {
	return t.name
}

// Interval 返回任务执行间隔
func (t *IntervalTask) Interval() time.Duration {
	return t.interval
}
