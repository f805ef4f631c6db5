package logx

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

var Error = tint.Err //nolint:gochecknoglobals

func Stringer(name string, value fmt.Stringer) slog.Attr {
	return slog.String(name, value.String())
}

func DurationMs(d time.Duration) slog.Attr {
	return slog.Int64(FieldDurationMs, d.Milliseconds())
}
