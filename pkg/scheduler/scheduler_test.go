package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTask 返回计数任务和对应的计数器
func countingTask(name string, interval time.Duration, immediate bool) (*IntervalTask, *atomic.Int64) {
	var count atomic.Int64
	task := NewIntervalTask(name, interval, immediate, 0, func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	return task, &count
}

// waitFor 等待条件满足，超时则失败
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), "等待条件超时")
}

// TestSchedulerPeriodicExecution 测试任务按固定间隔执行
func TestSchedulerPeriodicExecution(t *testing.T) {
	s := New(nil)
	task, count := countingTask("periodic", 20*time.Millisecond, false)
	require.NoError(t, s.AddTask(task))

	require.NoError(t, s.Start())
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return count.Load() >= 3 })
}

// TestSchedulerImmediateTask 测试immediate任务启动后立即执行一次
func TestSchedulerImmediateTask(t *testing.T) {
	s := New(nil)
	task, count := countingTask("immediate", time.Hour, true)
	require.NoError(t, s.AddTask(task))

	require.NoError(t, s.Start())
	defer s.Stop()

	// 间隔为1小时，执行一次只能来自immediate
	waitFor(t, time.Second, func() bool { return count.Load() == 1 })
}

// TestSchedulerDuplicateTask 测试同名任务重复注册报错
func TestSchedulerDuplicateTask(t *testing.T) {
	s := New(nil)
	first, _ := countingTask("dup", time.Hour, false)
	second, _ := countingTask("dup", time.Hour, false)

	require.NoError(t, s.AddTask(first))
	assert.Error(t, s.AddTask(second))
}

// TestSchedulerTrigger 测试手动触发不影响周期计划
func TestSchedulerTrigger(t *testing.T) {
	s := New(nil)
	task, count := countingTask("manual", time.Hour, false)
	require.NoError(t, s.AddTask(task))

	// 未启动时不可触发
	assert.Error(t, s.Trigger("manual"))

	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.Trigger("manual"))
	require.NoError(t, s.Trigger("manual"))
	assert.Equal(t, int64(2), count.Load())

	// 不存在的任务
	assert.Error(t, s.Trigger("missing"))
}

// TestSchedulerTaskFailureKeepsRunning 测试任务报错后调度继续
func TestSchedulerTaskFailureKeepsRunning(t *testing.T) {
	s := New(nil)
	var count atomic.Int64
	task := NewIntervalTask("flaky", 20*time.Millisecond, false, 0, func(ctx context.Context) error {
		n := count.Add(1)
		if n%2 == 1 {
			return fmt.Errorf("模拟失败")
		}
		return nil
	})
	require.NoError(t, s.AddTask(task))

	require.NoError(t, s.Start())
	defer s.Stop()

	// 即使有失败，执行次数仍持续增长
	waitFor(t, time.Second, func() bool { return count.Load() >= 4 })
}

// TestSchedulerStop 测试停止后不再有新的执行
func TestSchedulerStop(t *testing.T) {
	s := New(nil)
	task, count := countingTask("stoppable", 10*time.Millisecond, false)
	require.NoError(t, s.AddTask(task))

	require.NoError(t, s.Start())
	waitFor(t, time.Second, func() bool { return count.Load() >= 1 })

	s.Stop()
	after := count.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, count.Load(), "停止后不应再有新的执行")

	// 重复停止是安全的
	s.Stop()
}

// TestSchedulerStartTwice 测试重复启动报错
func TestSchedulerStartTwice(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.Start())
}

// TestSchedulerRemoveTask 测试移除任务
func TestSchedulerRemoveTask(t *testing.T) {
	s := New(nil)
	task, _ := countingTask("removable", time.Hour, false)
	require.NoError(t, s.AddTask(task))

	assert.True(t, s.RemoveTask("removable"))
	assert.False(t, s.RemoveTask("removable"))

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Error(t, s.Trigger("removable"))
}

// TestSchedulerAddTaskWhileRunning 测试运行期间新增任务立即生效
func TestSchedulerAddTaskWhileRunning(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	task, count := countingTask("late", 10*time.Millisecond, true)
	require.NoError(t, s.AddTask(task))

	waitFor(t, time.Second, func() bool { return count.Load() >= 2 })
}

// TestSchedulerSlowTaskDoesNotBlockOthers 测试慢任务不阻塞其他任务的执行
func TestSchedulerSlowTaskDoesNotBlockOthers(t *testing.T) {
	s := New(nil)

	slow := NewIntervalTask("slow-loop", 10*time.Millisecond, true, time.Second, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
		case <-time.After(200 * time.Millisecond):
		}
		return nil
	})
	fast, count := countingTask("fast-loop", 10*time.Millisecond, false)

	require.NoError(t, s.AddTask(slow))
	require.NoError(t, s.AddTask(fast))
	require.NoError(t, s.Start())
	defer s.Stop()

	// 慢任务执行期间快任务照常推进
	waitFor(t, time.Second, func() bool { return count.Load() >= 3 })
}

// TestSchedulerTaskTimeout 测试任务上下文在超时后被取消
func TestSchedulerTaskTimeout(t *testing.T) {
	s := New(nil)
	done := make(chan struct{})
	task := NewIntervalTask("slow", time.Hour, false, 20*time.Millisecond, func(ctx context.Context) error {
		defer close(done)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	require.NoError(t, s.AddTask(task))
	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.Trigger("slow"))
	select {
	case <-done:
	default:
		t.Fatal("任务应在超时后返回")
	}
}
