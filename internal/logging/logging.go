package logging

import (
	"io"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultRotationTime = 24 * time.Hour
	defaultMaxAgeDays   = 7
	defaultLevel        = logrus.InfoLevel
)

// LogConfig describes where a muxer logs to. With UseStderr unset, output
// goes to LogPath_YYYYMMDD files rotated every RotationTime, with LogPath
// linked to the current one.
type LogConfig struct {
	LogPath      string
	RotationTime time.Duration
	MaxAgeDays   int
	Level        string
	Format       string // "text" or "json"
	ReportCaller bool
	UseStderr    bool
}

func (lc *LogConfig) output() (io.Writer, error) {
	if lc.UseStderr {
		return os.Stderr, nil
	}

	if lc.LogPath == "" {
		return nil, errors.New("logging: empty log path")
	}

	rotation := lc.RotationTime
	if rotation <= 0 {
		rotation = defaultRotationTime
	}
	maxAge := lc.MaxAgeDays
	if maxAge <= 0 {
		maxAge = defaultMaxAgeDays
	}

	w, err := rotatelogs.New(
		lc.LogPath+"_%Y%m%d",
		rotatelogs.WithLinkName(lc.LogPath),
		rotatelogs.WithRotationTime(rotation),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "logging: open %s", lc.LogPath)
	}

	return w, nil
}

func (lc *LogConfig) NewLogger() (*logrus.Logger, error) {
	out, err := lc.output()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)

	switch strings.ToLower(lc.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		fallthrough
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	}

	if level, err := logrus.ParseLevel(lc.Level); err != nil {
		logger.SetLevel(defaultLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.SetReportCaller(lc.ReportCaller)

	return logger, nil
}
