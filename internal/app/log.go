package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/config"
)

// setupLogging routes the standard logrus logger to cfg.LogOutput. The TUI
// owns the terminal, so nothing is written to stderr while it runs. The
// returned func restores stderr and closes the file.
func setupLogging(cfg config.Config) (*logrus.Entry, func(), error) {
	dir := filepath.Dir(cfg.LogOutput)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output: %w", err)
	}

	logger := logrus.StandardLogger()
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(cfg.LogLevel)

	restore := func() {
		logger.SetOutput(os.Stderr)
		_ = f.Close()
	}
	return logrus.NewEntry(logger), restore, nil
}
