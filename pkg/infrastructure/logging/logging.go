// Package logging initializes the process-wide zerolog logger with a
// console sink and a rotating file sink. Library packages receive a
// logger value; only the CLI calls Init.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the global logger. Verbosity comes from the flag or
// the VERBOSE env var, the log directory from COLDPLAN_DATA_PATH
// (default: working dir).
func Init(verbose bool) {
	_ = godotenv.Load()

	level := zerolog.InfoLevel
	if verbose || os.Getenv("VERBOSE") == "true" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	dataPath := os.Getenv("COLDPLAN_DATA_PATH")
	if dataPath == "" {
		dataPath = "."
	}
	logDir := filepath.Join(dataPath, "logs")

	writers := []io.Writer{consoleWriter}
	if err := os.MkdirAll(logDir, 0o755); err == nil {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "coldplan.log"),
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}
