// Package logging builds the zap logger shared by every histdigest command.
//
// Two cores are teed together: a console core for the operator and an
// append-only file core that keeps warnings and errors across runs.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorLogTimeLayout is the timestamp layout of the append-only error log.
const ErrorLogTimeLayout = "2006-01-02 15:04:05"

// Options controls logger construction.
type Options struct {
	Level        string    // debug | info | warn | error
	JSON         bool      // JSON console output for machine consumption
	ErrorLogPath string    // empty disables the file core
	Console      io.Writer // defaults to os.Stderr
}

// New returns a sugared logger and a close func that flushes and releases
// the error log file. The close func is never nil.
func New(opts Options) (*zap.SugaredLogger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, func() {}, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var consoleEnc zapcore.Encoder
	if opts.JSON {
		consoleEnc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeCaller = nil
		consoleEnc = zapcore.NewConsoleEncoder(cfg)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.AddSync(console), level),
	}

	closeFile := func() {}
	if opts.ErrorLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.ErrorLogPath), 0o755); err != nil {
			return nil, func() {}, errors.Wrap(err, "create error log directory")
		}
		sink, closer, err := zap.Open(opts.ErrorLogPath)
		if err != nil {
			return nil, func() {}, errors.Wrapf(err, "open error log %s", opts.ErrorLogPath)
		}
		closeFile = closer
		cores = append(cores, zapcore.NewCore(newErrorLogEncoder(), sink, zapcore.WarnLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger.Sugar(), func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}

// newErrorLogEncoder renders lines like
// "[2024-03-01 12:24:56] WARN  read history: permission denied  {"source": "Safari"}".
func newErrorLogEncoder() zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format(ErrorLogTimeLayout) + "]")
		},
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.Newf("unknown log level %q", name)
	}
}
