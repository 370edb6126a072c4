package logger

import "go.uber.org/fx"

// Module routes fx lifecycle events into the framework logger.
var Module = fx.Options(
	fx.WithLogger(NewFxLoggerAdapter),
)
