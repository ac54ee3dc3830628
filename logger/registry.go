package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// registry holds named loggers and the per-component level overrides set by Init.
var registry = &loggerRegistry{
	loggers: make(map[string]*Logger),
	levels:  make(map[string]zerolog.Level),
}

type loggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	levels  map[string]zerolog.Level
}

// Register stores a named logger. Get returns it unchanged, ignoring any
// component level override.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// Get returns the logger registered under name. Otherwise it derives one from
// the global logger, tagged with the component name and filtered at the
// level configured for it in Config.Components.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	lvl, hasLevel := registry.levels[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}
	l = GetGlobalLogger().WithComponent(name)
	if hasLevel {
		l = l.WithLevel(lvl)
	}
	return l
}

func setComponentLevels(levels map[string]zerolog.Level) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.levels = levels
}
