package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// NewSessionLog creates a logger that writes to a timestamped file in the
// temp directory and mirrors entries to w (pass nil for file-only logging).
// The prefix is used in the filename: {prefix}-{timestamp}.log.
// Returns the logger and the log file path.
//
// Example:
//
//	log, logPath, err := engine.NewSessionLog("adminclient-install", os.Stderr)
//	if err != nil {
//	    return err
//	}
//	log.Infof("log file: %s", logPath)
func NewSessionLog(prefix string, w io.Writer) (*logrus.Logger, string, error) {
	timestamp := time.Now().Format("20060102-150405")
	logPath := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.log", prefix, timestamp))

	f, err := os.Create(logPath)
	if err != nil {
		return nil, "", fmt.Errorf("create log file: %w", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	if w != nil {
		log.SetOutput(io.MultiWriter(f, w))
	} else {
		log.SetOutput(f)
	}

	log.Infof("started: %s", time.Now().Format(time.RFC3339))
	return log, logPath, nil
}
