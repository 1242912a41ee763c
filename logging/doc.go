// Package logging provides a minimal logging interface and adapters.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that agents, tools and the office use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - ZerologAdapter (the default for the binaries)
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewZerolog(func(c *logging.ZerologConfig) {
//		c.Level = logging.LogLevelDebug
//		c.Pretty = true
//	})
//	chat := office.New(log, func(o *office.Options) { o.Logger = logger })
//
// Messages are dotted event keys (for example "office.round.start") followed
// by key/value fields.
package logging
