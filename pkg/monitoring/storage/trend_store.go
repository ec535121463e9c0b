// Package storage 提供趋势历史数据的有界内存存储
package storage

import (
	"sync"
	"time"

	"infrawatch/pkg/monitoring/models"
)

// DefaultTrendCapacity 默认趋势历史容量：1分钟一个点，保留7天
const DefaultTrendCapacity = 10080

// TrendStore 固定容量的趋势数据环形存储，容量满后淘汰最旧的数据点。
// 所有方法都是并发安全的。
type TrendStore struct {
	mu       sync.RWMutex
	points   []models.TrendPoint
	head     int // 最旧数据点的下标
	size     int
	capacity int
}

// NewTrendStore 创建趋势存储，capacity不大于0时使用默认容量
func NewTrendStore(capacity int) *TrendStore {
	if capacity <= 0 {
		capacity = DefaultTrendCapacity
	}
	return &TrendStore{
		points:   make([]models.TrendPoint, capacity),
		capacity: capacity,
	}
}

// Append 追加一个趋势数据点，容量已满时先淘汰最旧的数据点，O(1)
func (s *TrendStore) Append(point models.TrendPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail := (s.head + s.size) % s.capacity
	s.points[tail] = point
	if s.size < s.capacity {
		s.size++
	} else {
		// 覆盖了最旧的数据点，前移head
		s.head = (s.head + 1) % s.capacity
	}
}

// Query 返回时间戳不早于since的所有数据点，按时间升序
func (s *TrendStore) Query(since time.Time) []models.TrendPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.TrendPoint, 0, s.size)
	for i := 0; i < s.size; i++ {
		p := s.points[(s.head+i)%s.capacity]
		if !p.Timestamp.Before(since) {
			result = append(result, p)
		}
	}
	return result
}

// Latest 返回最近追加的数据点，存储为空时返回false
func (s *TrendStore) Latest() (models.TrendPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.size == 0 {
		return models.TrendPoint{}, false
	}
	return s.points[(s.head+s.size-1)%s.capacity], true
}

// Len 返回当前数据点数量
func (s *TrendStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity 返回存储容量
func (s *TrendStore) Capacity() int {
	return s.capacity
}
