package pecs

import "go.uber.org/zap"

// Config holds process-wide defaults applied to every World created
// without an explicit override: the default logger and default
// archetype row capacity.
var Config config = config{
	defaultInitialCapacity: defaultInitialCapacity,
}

type config struct {
	logger                 *zap.Logger
	defaultInitialCapacity int
}

// SetLogger installs the process-wide default logger used by any World
// constructed with a nil WorldConfig.Logger.
func (c *config) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetDefaultInitialCapacity installs the process-wide default archetype
// row capacity hint used by any World constructed with
// WorldConfig.InitialCapacity == 0.
func (c *config) SetDefaultInitialCapacity(n int) {
	if n > 0 {
		c.defaultInitialCapacity = n
	}
}

func (c *config) resolveLogger(override *zap.Logger) *zap.Logger {
	if override != nil {
		return override
	}
	if c.logger != nil {
		return c.logger
	}
	return zap.NewNop()
}

func (c *config) resolveInitialCapacity(override int) int {
	if override > 0 {
		return override
	}
	return c.defaultInitialCapacity
}
