package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"

	constants "shopcarts/pkg/config"
	"shopcarts/pkg/lib/logger/handler/slogpretty"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions enables a rotating log file next to stdout when Filename is set.
type FileOptions struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func FileOptionsFromConfig(cfg constants.LogConfig) FileOptions {
	return FileOptions{
		Filename:   cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// SetupLogger builds the logger for env. The returned closer releases the log file
// and must be called on shutdown.
func SetupLogger(env string, fileOpts FileOptions) (*slog.Logger, io.Closer, error) {
	var log *slog.Logger

	out, closer := output(fileOpts)

	switch env {
	case constants.EnvLocal:
		log = setupPrettySlog(out)
	case constants.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case constants.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		closer.Close()
		return nil, nil, errors.New("failed to init logger: wrong env variable")
	}

	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func output(fileOpts FileOptions) (io.Writer, io.Closer) {
	if fileOpts.Filename == "" {
		return os.Stdout, nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   fileOpts.Filename,
		MaxSize:    fileOpts.MaxSizeMB,
		MaxBackups: fileOpts.MaxBackups,
		MaxAge:     fileOpts.MaxAgeDays,
		Compress:   fileOpts.Compress,
	}

	return io.MultiWriter(os.Stdout, file), file
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(out)

	return slog.New(handler)
}
