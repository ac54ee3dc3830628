// Package validation validates configuration structs with struct tags.
//
//	type Config struct {
//	    LowWaterMark int    `mapstructure:"low_water_mark" validate:"gte=0"`
//	    Scheduler    string `mapstructure:"scheduler" validate:"omitempty,oneof=trampoline immediate"`
//	}
//	err := validation.Validate(cfg)
//
// Failures are reported as a single INVALID_CONFIG AppError whose details
// list every offending field by its mapstructure key.
package validation
