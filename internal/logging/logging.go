// Package logging configures the process-wide logrus logger behind log.G(ctx).
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"

	"filemeta/internal/config"
)

// Setup applies level and format to the global logger and sends output to out.
//
// JSON records use "ts", "level" and "msg" keys.
func Setup(cfg config.LogConfig, out io.Writer) error {
	logger := log.L.Logger
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
			},
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: log.RFC3339NanoFixed,
		})
	default:
		return fmt.Errorf("unsupported log format %q", cfg.Format)
	}
	return nil
}
