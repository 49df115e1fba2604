package config

import (
	"strings"

	"github.com/pkg/errors"
)

func (c *Config) normalize() error {
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeOutput() error {
	var err error
	if c.Output.ReportPath, err = expandPath(strings.TrimSpace(c.Output.ReportPath)); err != nil {
		return errors.Wrap(err, "output.report_path")
	}
	if c.Output.ResultsDB, err = expandPath(strings.TrimSpace(c.Output.ResultsDB)); err != nil {
		return errors.Wrap(err, "output.results_db")
	}
	if c.Output.DrawingPath, err = expandPath(strings.TrimSpace(c.Output.DrawingPath)); err != nil {
		return errors.Wrap(err, "output.drawing_path")
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
