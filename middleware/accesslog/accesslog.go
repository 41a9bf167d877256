// Package accesslog provides a zerolog-based access-log middleware,
// logging one structured line per procedure call.
package accesslog

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ducksrv/duckserver"
)

// New builds a middleware that logs one line per call to logger, tagged
// with the procedure name (via procedureName), outcome, and latency.
func New[C any](logger zerolog.Logger, procedureName func(C) string) duckserver.Middleware[C] {
	return func(ctx C, next duckserver.Next[C]) duckserver.Result {
		name := "unknown"
		if procedureName != nil {
			name = procedureName(ctx)
		}

		start := time.Now()
		result := next(ctx)
		elapsed := time.Since(start)

		evt := logger.Info()
		if !result.IsOK() {
			evt = logger.Warn().Str("code", string(result.ErrorCode()))
		}
		evt.
			Str("procedure", name).
			Dur("duration", elapsed).
			Msg("rpc call")

		return result
	}
}
