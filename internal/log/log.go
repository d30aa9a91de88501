package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// 固定的 subsystem/category，便于按来源过滤凭据存储日志。
const (
	Subsystem = "dev.zx06.xcred"
	Category  = "credstore"
)

// New 返回写入到 w 的 slog.Logger（默认 level=INFO）。
// 注意：stdout=数据，日志应始终写 stderr（由调用方传入）。
func New(w io.Writer) *slog.Logger {
	return NewWithLevel(w, slog.LevelInfo)
}

// NewWithLevel 与 New 相同，但可指定最低级别。
func NewWithLevel(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Discard 返回丢弃所有输出的 logger。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel 解析 debug|info|warn|error（大小写不敏感）；空串视为 warn。
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// WithSubsystem 为 logger 附加 subsystem/category 属性。
func WithSubsystem(l *slog.Logger, subsystem, category string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With(slog.String("subsystem", subsystem), slog.String("category", category))
}
