// Package log provides a simple, leveled logging interface for the movie
// chatbot.
//
// The package supports five log levels, in order of increasing severity:
//
//   - LogLevelDebug: Detailed debugging information for development
//   - LogLevelInfo: General informational messages about normal operation
//   - LogLevelWarn: Warning messages for potentially problematic situations
//   - LogLevelError: Error messages for failures that need attention
//   - LogLevelNone: Disables all logging output
//
// A DefaultLogger backed by the standard library is provided, together with a
// minimal wrapper around github.com/kataras/golog for users who prefer its
// formatting:
//
//	glogger := golog.New()
//	glogger.SetPrefix("[moviechat] ")
//	logger := log.NewGologLogger(glogger)
//	log.SetDefaultLogger(logger)
//
// All chatbot packages log through the package-level functions, so swapping
// the default logger is enough to redirect or silence their output.
package log
