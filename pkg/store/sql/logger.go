//nolint:goprintffuncname
package sql

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type loggerAdaptor struct {
	Logger *logrus.Logger
	Config LoggerAdaptorConfig
}

type LoggerAdaptorConfig struct {
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

// NewLoggerAdaptor routes gorm's logging through logrus.
//
//nolint:ireturn
func NewLoggerAdaptor(l *logrus.Logger, cfg LoggerAdaptorConfig) logger.Interface {
	return &loggerAdaptor{l, cfg}
}

// LogMode is a no-op, the logrus level decides what is logged.
//
//nolint:ireturn
func (l *loggerAdaptor) LogMode(_ logger.LogLevel) logger.Interface {
	return l
}

const (
	maximumCallerDepth int = 15
	minimumCallerDepth int = 4
)

// getLoggerEntry reports the first caller outside of gorm and this package.
func (l *loggerAdaptor) getLoggerEntry(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithContext(ctx).WithField("component", "sql")

	pcs := make([]uintptr, maximumCallerDepth)
	depth := runtime.Callers(minimumCallerDepth, pcs)
	frames := runtime.CallersFrames(pcs[:depth])

	for f, again := frames.Next(); again; f, again = frames.Next() {
		if !strings.HasPrefix(f.Function, "gorm.io/") && !strings.Contains(f.Function, "/store/sql.(*loggerAdaptor)") {
			entry = entry.WithFields(logrus.Fields{
				"app_file": fmt.Sprintf("%s:%d", f.File, f.Line),
				"app_func": f.Function + "()",
			})

			break
		}
	}

	return entry
}

func (l *loggerAdaptor) Info(ctx context.Context, format string, args ...any) {
	l.getLoggerEntry(ctx).Infof(format, args...)
}

func (l *loggerAdaptor) Warn(ctx context.Context, format string, args ...any) {
	l.getLoggerEntry(ctx).Warnf(format, args...)
}

func (l *loggerAdaptor) Error(ctx context.Context, format string, args ...any) {
	l.getLoggerEntry(ctx).Errorf(format, args...)
}

func (l *loggerAdaptor) getLoggerEntryWithSQL(
	ctx context.Context,
	elapsed time.Duration,
	fc func() (sql string, rowsAffected int64),
) *logrus.Entry {
	entry := l.getLoggerEntry(ctx).WithField("elapsed", elapsed.Round(time.Microsecond).String())

	if fc != nil {
		sql, rows := fc()
		entry = entry.WithField("sql", sql)

		if rows == -1 {
			entry = entry.WithField("rows", "-")
		} else {
			entry = entry.WithField("rows", rows)
		}
	}

	return entry
}

// Trace logs failed statements as errors, slow ones as warnings and the rest at debug level.
func (l *loggerAdaptor) Trace(
	ctx context.Context,
	begin time.Time,
	function func() (sql string, rowsAffected int64),
	err error,
) {
	if l.Logger.GetLevel() <= logrus.FatalLevel {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil &&
		l.Logger.IsLevelEnabled(logrus.ErrorLevel) &&
		(!errors.Is(err, gorm.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		l.getLoggerEntryWithSQL(ctx, elapsed, function).WithError(err).Error("SQL error")
	case elapsed > l.Config.SlowThreshold &&
		l.Config.SlowThreshold != 0 &&
		l.Logger.IsLevelEnabled(logrus.WarnLevel):
		l.getLoggerEntryWithSQL(ctx, elapsed, function).Warnf("SLOW SQL >= %v", l.Config.SlowThreshold)
	case l.Logger.IsLevelEnabled(logrus.DebugLevel):
		l.getLoggerEntryWithSQL(ctx, elapsed, function).Debug("SQL trace")
	}
}
