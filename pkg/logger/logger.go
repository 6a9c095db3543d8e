package logger

import (
	"context"

	"clientdesk/pkg/trace"

	"go.uber.org/zap"
)

var Log *zap.Logger

// NewLogger 生产环境 logger；local/test 环境使用 development 配置
func NewLogger(env ...string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if len(env) > 0 && (env[0] == "local" || env[0] == "test") {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// WithTrace 从 context 中提取 trace_id 并添加到 logger
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
