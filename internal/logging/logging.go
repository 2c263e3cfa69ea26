// Package logging provides structured logging for pipeline runs.
package logging

import (
	"go.uber.org/zap"
)

// Config holds logging configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool   // console encoding and dev defaults
}

// New creates a structured logger. Production runs log JSON; development
// runs log to the console.
func New(cfg Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// NewDefault returns an info-level production logger, falling back to a
// bare production logger if building fails.
func NewDefault() *zap.Logger {
	log, err := New(Config{Level: "info"})
	if err != nil {
		log, _ = zap.NewProduction()
	}
	return log
}

// DataQuality logs a data-quality issue in a consistent shape so review
// tooling can filter for them.
func DataQuality(log *zap.Logger, entity, issue string, count int) {
	log.Warn("data quality issue",
		zap.String("entity", entity),
		zap.String("issue", issue),
		zap.Int("count", count))
}
