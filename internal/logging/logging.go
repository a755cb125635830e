// Package logging builds the per-node structured logger required by
// spec §6: one text file per node at ./logs/<id>.txt, one event per
// line, prefixed with local wall-clock time.
package logging

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// New creates a *logrus.Logger that writes to <dir>/<id>.txt (./logs/<id>.txt
// with the CLI's default --log-dir) using a
// plain, timestamped text formatter, mirroring the teacher's
// one-log-file-per-node layout (node.go's inputLog/outputLog) but
// collapsed into structured fields the way the pack's DTLSR router logs
// (log.WithFields(...)) instead of three separate files.
func New(dir, id string) (*logrus.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, id+".txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.DebugLevel)
	return logger, nil
}
