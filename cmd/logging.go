package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// writerHook writes entries at or above a level with its own formatter.
type writerHook struct {
	w         io.Writer
	formatter logrus.Formatter
	max       logrus.Level
}

func (h *writerHook) Levels() []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= h.max {
			levels = append(levels, l)
		}
	}
	return levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}

// newLogger builds the process logger. The console gets warnings, or
// everything with --debug, unless quietConsole is set (the menu owns the
// screen). logFile, if set, receives Info and above as JSON lines.
func newLogger(debug, quietConsole bool, logFile string) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.WarnLevel)

	consoleLevel := logrus.WarnLevel
	if debug {
		consoleLevel = logrus.DebugLevel
		logger.SetLevel(logrus.DebugLevel)
	}
	if !quietConsole {
		logger.AddHook(&writerHook{
			w:         os.Stderr,
			formatter: &logrus.TextFormatter{FullTimestamp: true},
			max:       consoleLevel,
		})
	}

	closer := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		fileLevel := logrus.InfoLevel
		if debug {
			fileLevel = logrus.DebugLevel
		}
		if logger.GetLevel() < fileLevel {
			logger.SetLevel(fileLevel)
		}
		logger.AddHook(&writerHook{w: f, formatter: &logrus.JSONFormatter{}, max: fileLevel})
		closer = func() { f.Close() }
	}
	return logger, closer, nil
}
