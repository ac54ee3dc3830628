package config

import "github.com/kbukum/pagestream/enumerator"

// StreamDefaults returns the enumerator defaults under key, ready for WithDefaults.
func StreamDefaults(key string) map[string]any {
	d := enumerator.DefaultConfig()
	return map[string]any{
		key + ".low_water_mark":    d.LowWaterMark,
		key + ".prefetch_disabled": d.PrefetchDisabled,
		key + ".scheduler":         d.Scheduler,
	}
}
