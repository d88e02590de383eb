package statsapi

import (
	"context"
	"fmt"

	"github.com/okian/quals/pkg/logger"
)

// leveled adapts logger.Logger to retryablehttp.LeveledLogger.
type leveled struct {
	l logger.Logger
}

func (x leveled) Error(msg string, kv ...any) { x.l.Error(context.Background(), msg, fields(kv)...) }
func (x leveled) Info(msg string, kv ...any)  { x.l.Debug(context.Background(), msg, fields(kv)...) }
func (x leveled) Debug(msg string, kv ...any) { x.l.Debug(context.Background(), msg, fields(kv)...) }
func (x leveled) Warn(msg string, kv ...any)  { x.l.Warn(context.Background(), msg, fields(kv)...) }

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
