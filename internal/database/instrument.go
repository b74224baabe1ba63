package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// QueryRecorder 接收每条语句的耗时，由 metrics.Collector 实现
type QueryRecorder interface {
	RecordDBQuery(database, operation string, duration time.Duration)
}

const startKey = "agenthub:query_start"

// Instrument 在 db 的 create/query/update/delete 回调链上挂载计时
func Instrument(db *gorm.DB, name string, rec QueryRecorder) error {
	if db == nil || rec == nil {
		return fmt.Errorf("db and recorder are required")
	}

	before := func(tx *gorm.DB) {
		tx.InstanceSet(startKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			if start, ok := v.(time.Time); ok {
				rec.RecordDBQuery(name, op, time.Since(start))
			}
		}
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("agenthub:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("agenthub:after_create", after("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("agenthub:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("agenthub:after_query", after("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("agenthub:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("agenthub:after_update", after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("agenthub:before_delete", before); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Register("agenthub:after_delete", after("delete"))
}
