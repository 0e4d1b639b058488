package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the process-wide logger: timestamped JSON entries are
// written both to the console and to a rotating log file. The returned
// closer flushes and closes the file handle on shutdown.
func Setup(filePath string) io.Closer {
	lj := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	handler := slog.NewJSONHandler(io.MultiWriter(os.Stdout, lj), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	return lj
}
