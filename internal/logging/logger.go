package logging

import (
	"io"
	"log/slog"
	"os"

	"gorm.io/gorm"
)

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(jsonHandler(os.Stdout)))
}

// AttachDB makes the default logger also persist ERROR+ records to
// system_logs. The returned handler must be stopped on shutdown so the last
// batch is written.
func AttachDB(db *gorm.DB) *PGHandler {
	pg := NewPGHandler(db)
	slog.SetDefault(slog.New(NewMultiHandler(jsonHandler(os.Stdout), pg)))
	return pg
}

func jsonHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}
