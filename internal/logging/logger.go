package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/d21d3q/geoframe/internal/config"
)

// New builds a root logger from configuration. Unknown levels fall back to
// info; config.Validate rejects them before this is reached.
func New(cfg config.LoggingConfig, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out != nil {
		log.SetOutput(out)
	}
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&prefixed.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Component returns an entry tagged with the component prefix.
func Component(log *logrus.Logger, prefix string) *logrus.Entry {
	return log.WithField("prefix", prefix)
}
