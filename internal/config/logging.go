package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the level and formatter of the standard logrus
// logger.  Format is "text" or "json".
func ConfigureLogging(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "LOG_LEVEL %q", level)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)
	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return errors.Errorf("LOG_FORMAT must be text or json, got %q", format)
	}
	return nil
}
