package pipeline

import (
	"areagroup/internal/logger"
	"areagroup/internal/models"
)

// WarningSink receives row warnings as they are produced. Warn is only ever
// called from the goroutine that processes rows.
type WarningSink interface {
	Warn(w models.Warning)
}

// WarningFunc adapts a function to WarningSink.
type WarningFunc func(models.Warning)

// Warn calls f(w).
func (f WarningFunc) Warn(w models.Warning) { f(w) }

// Collector keeps every warning in arrival order.
type Collector struct {
	warnings []models.Warning
}

// Warn records w.
func (c *Collector) Warn(w models.Warning) {
	c.warnings = append(c.warnings, w)
}

// Warnings returns the collected warnings.
func (c *Collector) Warnings() []models.Warning {
	return c.warnings
}

// Messages returns the collected warning texts.
func (c *Collector) Messages() []string {
	out := make([]string, len(c.warnings))
	for i, w := range c.warnings {
		out[i] = w.Message
	}

	return out
}

// LogSink writes each warning to log at warn level.
func LogSink(log *logger.Logger) WarningSink {
	return WarningFunc(func(w models.Warning) {
		log.Warn(w.Message, "kind", string(w.Kind), "field", w.Field)
	})
}

type discardSink struct{}

func (discardSink) Warn(models.Warning) {}
