// Package logging configures the process-wide zap logger.
package logging

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func getFileWriter(logFileName string) io.Writer {
	return &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
}

func parseLevelEncoder(name string) zapcore.LevelEncoder {
	switch name {
	case "capitalColor":
		return zapcore.CapitalColorLevelEncoder
	case "lowercase":
		return zapcore.LowercaseLevelEncoder
	default:
		return zapcore.CapitalLevelEncoder
	}
}

func encoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		EncodeLevel: levelEncoder,
		TimeKey:     "time",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000000Z"))
		},
		NameKey:          "name",
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: "\t",
	}
}

// New builds a logger writing to w. format is "console" or "json".
func New(w io.Writer, levelName, levelEncoderName, format string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	cfg := encoderConfig(parseLevelEncoder(levelEncoderName))
	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level)), nil
}

// SetGlobalLogger replaces zap's global logger. Console output goes to
// stderr so it never mixes with display output. When logFilePath is set, a
// rotated JSON log receiving every level is teed alongside.
func SetGlobalLogger(levelName, levelEncoderName, format, logFilePath string) error {
	console, err := New(os.Stderr, levelName, levelEncoderName, format)
	if err != nil {
		return err
	}
	if logFilePath == "" {
		zap.ReplaceGlobals(console)
		return nil
	}
	all := zap.LevelEnablerFunc(func(zapcore.Level) bool { return true })
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(getFileWriter(logFilePath)),
		all,
	)
	zap.ReplaceGlobals(zap.New(zapcore.NewTee(console.Core(), fileCore)))
	return nil
}
