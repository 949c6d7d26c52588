package cli

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger. Logs always go to stderr so stdout
// carries only records; ndjson output gets JSON logs, text gets console logs.
func newLogger(globals *Globals) *zap.Logger {
	var w io.Writer = os.Stderr
	if globals.Stderr != nil {
		w = globals.Stderr
	}

	level := zapcore.InfoLevel
	switch {
	case globals.Verbose:
		level = zapcore.DebugLevel
	case globals.Quiet:
		level = zapcore.ErrorLevel
	}

	var enc zapcore.Encoder
	if globals.Format == "text" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc = zapcore.NewConsoleEncoder(ec)
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))
	return zap.New(core)
}
