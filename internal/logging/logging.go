package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the rotating log file written under the log directory.
const LogFileName = "tankscope.log"

// Init installs the global logger. Records go to stderr and to a rotating
// file under LOGS_FOLDER (default <exe dir>/logs). stdout is left alone so the
// MCP stdio transport stays clean.
//
// Environment:
//
//	LOGS_FOLDER  log directory
//	LOG_LEVEL    trace|debug|info|warn|error; --verbose wins when set
//	LOG_FORMAT   json keeps stderr machine-readable
func Init(verbose bool) {
	// .env is read here as well because Init runs before config.Load.
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
		_ = godotenv.Load(filepath.Join(exeDir, ".env"))
	}

	zerolog.SetGlobalLevel(resolveLevel(verbose, os.Getenv("LOG_LEVEL")))

	dir := resolveLogDir(os.Getenv("LOGS_FOLDER"), exeDir)
	if err := ensureWritable(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sink := zerolog.MultiLevelWriter(stderrWriter(os.Getenv("LOG_FORMAT")), fileWriter(dir))
	log.Logger = zerolog.New(sink).
		With().
		Timestamp().
		Str("app", "tankscope").
		Logger()
}

func resolveLevel(verbose bool, env string) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	if env != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(env))); err == nil && lvl != zerolog.NoLevel {
			return lvl
		}
	}
	return zerolog.InfoLevel
}

func resolveLogDir(env, exeDir string) string {
	switch {
	case env != "":
		return env
	case exeDir != "":
		return filepath.Join(exeDir, "logs")
	}
	return "logs"
}

// ensureWritable creates dir and checks it with a throwaway file.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	marker := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(marker, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(marker)
	return nil
}

func stderrWriter(format string) io.Writer {
	if format == "json" {
		return os.Stderr
	}
	fd := os.Stderr.Fd()
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)),
	}
}

func fileWriter(dir string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFileName),
		MaxSize:    8, // megabytes
		MaxBackups: 12,
		MaxAge:     365, // days
		Compress:   true,
	}
}
