package webpush

import (
	"log/slog"

	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/logging"
)

// defaultLogPath is used when file logging is enabled without a path.
const defaultLogPath = "logs/webpush.log"

// newDispatchLogger builds the delivery event logger from the push log
// settings. With file logging disabled, or when the file logger cannot be
// created, delivery events go to the shared structured logger instead of
// being dropped.
func newDispatchLogger(settings *conf.Settings) (*slog.Logger, func() error) {
	level := slog.LevelInfo
	if settings.Debug || settings.Push.Debug {
		level = slog.LevelDebug
	}

	logCfg := settings.Push.Log
	if !logCfg.Enabled {
		return logging.ForService("webpush"), func() error { return nil }
	}

	path := logCfg.Path
	if path == "" {
		path = defaultLogPath
	}

	logger, closeFunc, err := logging.NewFileLogger(path, "webpush", level, logging.FileLoggerConfig{
		MaxSizeMB:  logCfg.MaxSize,
		MaxBackups: logCfg.MaxBackups,
		MaxAgeDays: logCfg.MaxAge,
	})
	if err != nil {
		logging.Error("Failed to initialize web push file logger", "error", err, "path", path)
		return logging.ForService("webpush"), func() error { return nil }
	}
	return logger, closeFunc
}
