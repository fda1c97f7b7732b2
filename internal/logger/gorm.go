package logger

import (
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// gormWriter adapts a zap logger to the Printf writer gorm's logger expects.
type gormWriter struct {
	sugar *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.sugar.Infof(format, args...)
}

// Gorm returns a gorm logger that writes through zap.
func Gorm(log *zap.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(
		gormWriter{sugar: log.Named("gorm").WithOptions(zap.AddCallerSkip(3)).Sugar()},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
