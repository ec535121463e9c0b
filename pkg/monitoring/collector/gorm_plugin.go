package collector

import (
	"time"

	"gorm.io/gorm"
)

const monitorStartTimeKey = "monitor:start_time"

// GormMonitorPlugin GORM监控插件，把每次数据库操作的耗时上报给数据库收集器
type GormMonitorPlugin struct {
	collector *DatabaseCollector
}

// NewGormMonitorPlugin 创建新的GORM监控插件
func NewGormMonitorPlugin(collector *DatabaseCollector) *GormMonitorPlugin {
	return &GormMonitorPlugin{collector: collector}
}

// Name 返回插件名称，实现gorm.Plugin接口
func (p *GormMonitorPlugin) Name() string {
	return "gorm:infrawatch-monitor"
}

// Initialize 为各操作类型注册前后回调，实现gorm.Plugin接口
func (p *GormMonitorPlugin) Initialize(db *gorm.DB) error {
	db.Callback().Create().Before("gorm:create").Register("monitor:create_before", p.before)
	db.Callback().Create().After("gorm:create").Register("monitor:create_after", p.after)

	db.Callback().Update().Before("gorm:update").Register("monitor:update_before", p.before)
	db.Callback().Update().After("gorm:update").Register("monitor:update_after", p.after)

	db.Callback().Delete().Before("gorm:delete").Register("monitor:delete_before", p.before)
	db.Callback().Delete().After("gorm:delete").Register("monitor:delete_after", p.after)

	db.Callback().Query().Before("gorm:query").Register("monitor:query_before", p.before)
	db.Callback().Query().After("gorm:query").Register("monitor:query_after", p.after)

	db.Callback().Raw().Before("gorm:raw").Register("monitor:raw_before", p.before)
	db.Callback().Raw().After("gorm:raw").Register("monitor:raw_after", p.after)

	db.Callback().Row().Before("gorm:row").Register("monitor:row_before", p.before)
	db.Callback().Row().After("gorm:row").Register("monitor:row_after", p.after)

	return nil
}

// before 记录操作开始时间
func (p *GormMonitorPlugin) before(db *gorm.DB) {
	db.Set(monitorStartTimeKey, time.Now())
}

// after 计算操作耗时并上报
func (p *GormMonitorPlugin) after(db *gorm.DB) {
	val, exists := db.Get(monitorStartTimeKey)
	if !exists {
		return
	}
	start, ok := val.(time.Time)
	if !ok {
		return
	}

	durationMs := float64(time.Since(start).Nanoseconds()) / 1e6
	p.collector.RecordOperation(durationMs)
}
