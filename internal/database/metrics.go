package database

import (
	"errors"
	"time"

	"phora/internal/observability"

	"gorm.io/gorm"
)

const startTimeKey = "phora:query_start"

func metricsBefore(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func metricsAfter(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		observability.DatabaseQueryLatency.WithLabelValues(op, table).
			Observe(time.Since(start).Seconds())
	}
}

// RegisterMetricsCallbacks hooks query latency observation into every
// GORM operation, labelled by operation and table.
func RegisterMetricsCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("phora:metrics_before_create", metricsBefore),
		cb.Create().After("gorm:create").Register("phora:metrics_after_create", metricsAfter("create")),
		cb.Query().Before("gorm:query").Register("phora:metrics_before_query", metricsBefore),
		cb.Query().After("gorm:query").Register("phora:metrics_after_query", metricsAfter("query")),
		cb.Update().Before("gorm:update").Register("phora:metrics_before_update", metricsBefore),
		cb.Update().After("gorm:update").Register("phora:metrics_after_update", metricsAfter("update")),
		cb.Delete().Before("gorm:delete").Register("phora:metrics_before_delete", metricsBefore),
		cb.Delete().After("gorm:delete").Register("phora:metrics_after_delete", metricsAfter("delete")),
		cb.Row().Before("gorm:row").Register("phora:metrics_before_row", metricsBefore),
		cb.Row().After("gorm:row").Register("phora:metrics_after_row", metricsAfter("row")),
		cb.Raw().Before("gorm:raw").Register("phora:metrics_before_raw", metricsBefore),
		cb.Raw().After("gorm:raw").Register("phora:metrics_after_raw", metricsAfter("raw")),
	)
}
