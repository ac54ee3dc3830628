package enumerator

import (
	"github.com/kbukum/pagestream/trampoline"
	"github.com/kbukum/pagestream/validation"
)

// DefaultLowWaterMark is the buffered element count below which a
// prefetch is issued.
const DefaultLowWaterMark = 100

// Config holds enumerator settings.
type Config struct {
	// LowWaterMark is the buffered element count below which the next page
	// is requested in the background. Zero fetches only when the buffer is empty.
	LowWaterMark int `mapstructure:"low_water_mark" validate:"gte=0"`
	// PrefetchDisabled turns off read-ahead: a page is requested only when
	// the buffer is empty.
	PrefetchDisabled bool `mapstructure:"prefetch_disabled"`
	// Scheduler selects how chained steps run: "trampoline" or "immediate".
	Scheduler string `mapstructure:"scheduler" validate:"omitempty,oneof=trampoline immediate"`
}

// DefaultConfig returns the default enumerator configuration.
func DefaultConfig() Config {
	return Config{
		LowWaterMark: DefaultLowWaterMark,
		Scheduler:    string(trampoline.KindTrampoline),
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Scheduler == "" {
		c.Scheduler = string(trampoline.KindTrampoline)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

func (c *Config) prefetchEnabled() bool {
	return !c.PrefetchDisabled && c.LowWaterMark > 0
}
