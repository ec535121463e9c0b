package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"infrawatch/pkg/common"
)

// Scheduler 管理一组相互独立的周期任务。
// 每个任务运行在自己的goroutine上，互不阻塞；Stop会取消所有任务并等待
// 执行中的任务结束，之后不会再有新的执行开始。
type Scheduler struct {
	logger *zap.Logger

	mu    sync.Mutex
	tasks map[string]*IntervalTask

	isRunning atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// 统计信息
	completed atomic.Int64
	failed    atomic.Int64
}

// New 创建新的调度器
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = common.GetLogger().GetZapLogger("scheduler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger,
		tasks:  make(map[string]*IntervalTask),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddTask 注册周期任务，同名任务重复注册返回错误。
// 调度器已启动时新任务立即开始调度。
func (s *Scheduler) AddTask(task *IntervalTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.name]; exists {
		return fmt.Errorf("任务已存在: %s", task.name)
	}
	s.tasks[task.name] = task

	if s.isRunning.Load() {
		s.launch(task)
	}
	return nil
}

// RemoveTask 移除周期任务，任务在下一次调度检查时退出
func (s *Scheduler) RemoveTask(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; !exists {
		return false
	}
	delete(s.tasks, name)
	return true
}

// Start 启动调度器，所有已注册任务开始周期执行
func (s *Scheduler) Start() error {
	if !s.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("调度器已经在运行")
	}

	s.mu.Lock()
	for _, task := range s.tasks {
		s.launch(task)
	}
	s.mu.Unlock()

	s.logger.Info("调度器已启动", zap.Int("task_count", len(s.tasks)))
	return nil
}

// Stop 停止调度器：不再开始新的执行，等待执行中的任务结束
func (s *Scheduler) Stop() {
	if !s.isRunning.CompareAndSwap(true, false) {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.logger.Info("调度器已停止",
		zap.Int64("completed", s.completed.Load()),
		zap.Int64("failed", s.failed.Load()))
}

// Trigger 立即执行一次指定任务，与周期触发走同一条执行路径。
// 任务不存在时返回错误。
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	task, exists := s.tasks[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("任务不存在: %s", name)
	}
	if !s.isRunning.Load() {
		return fmt.Errorf("调度器未运行")
	}

	s.runTask(task)
	return nil
}

// launch 启动任务的周期执行goroutine，调用方需持有s.mu
func (s *Scheduler) launch(task *IntervalTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(task.interval)
		defer ticker.Stop()

		if task.immediate {
			s.runTask(task)
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if !s.stillRegistered(task.name) {
					return
				}
				s.runTask(task)
			}
		}
	}()
}

// stillRegistered 检查任务是否仍在注册表中
func (s *Scheduler) stillRegistered(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.tasks[name]
	return exists
}

// runTask 执行单次任务，任务内部的错误被记录后吞掉，调度循环继续
func (s *Scheduler) runTask(task *IntervalTask) {
	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(s.ctx, task.timeout)
	defer cancel()

	err := task.fn(ctx)
	duration := time.Since(start)

	if err != nil {
		s.failed.Add(1)
		s.logger.Error("任务执行失败",
			zap.String("task", task.name),
			zap.Duration("duration", duration),
			zap.Error(err))
		return
	}

	s.completed.Add(1)
	s.logger.Debug("任务执行完成",
		zap.String("task", task.name),
		zap.Duration("duration", duration))
}
