// Package logger provides structured logging for pagestream using zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers and a stream id carried through context so every log line emitted
// while draining a cursor can be correlated.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  components:
//	    cursor: "debug"
//
// Components raises or lowers the level of the loggers Get returns for the
// named components only.
//
// # Usage
//
//	log := logger.Get("enumerator")
//	log.Info("stream finished", logger.Fields("elements", n))
package logger
