package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/audiopen/logger"
)

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// queryLog sends gorm output through the audiopen logger. Failed queries
// log at error, slow ones at warn, the rest at debug when level is info.
// Missing rows are expected by the stores and never logged.
type queryLog struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newQueryLog(log *logger.Logger, level string, slow time.Duration) *queryLog {
	lvl, ok := gormLevels[level]
	if !ok {
		lvl = gormlogger.Warn
	}
	return &queryLog{log: log.WithComponent("gorm"), level: lvl, slow: slow}
}

func (q *queryLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *q
	c.level = level
	return &c
}

func (q *queryLog) Info(_ context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Info {
		q.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (q *queryLog) Warn(_ context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Warn {
		q.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (q *queryLog) Error(_ context.Context, msg string, args ...any) {
	if q.level >= gormlogger.Error {
		q.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (q *queryLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level == gormlogger.Silent {
		return
	}
	took := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := q.slow > 0 && took > q.slow

	msg, emit := "query", q.log.Debug
	switch {
	case failed && q.level >= gormlogger.Error:
		msg, emit = "query failed", q.log.Error
	case slow && q.level >= gormlogger.Warn:
		msg, emit = "slow query", q.log.Warn
	case q.level < gormlogger.Info:
		return
	}
	sql, rows := fc()
	fields := logger.Fields("sql", sql, "rows", rows, logger.FieldDuration, took.Milliseconds())
	if failed {
		fields[logger.FieldError] = err.Error()
	}
	emit(msg, fields)
}
