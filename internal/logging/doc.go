// Package logging provides structured logging for labelgen.
//
// This package wraps a zap logger with convenience functions and three
// optional sinks:
//
//   - Console: human-readable output on stderr, enabled by a level or the
//     LABELGEN_LOG_LEVEL environment variable. Silent otherwise, so CLI
//     output stays clean.
//   - File: one JSON-lines file per day (logs/labelgen_YYYYMMDD.log) that
//     `labelgen logs show` reads back and filters.
//   - Journal: an in-memory ring of the last 1000 entries, shown by the TUI
//     log screen and served by the station at /api/logs.
//
// # Modules
//
// Components log through a named child logger so entries can be filtered by
// module:
//
//	log := logging.Named("catalog")
//	log.Info("Product added", zap.String("code", code))
//
// # Configuration
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level:   "debug",
//	    FileDir: "logs",
//	    Journal: true,
//	}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Named loggers capture the
// logger that was current when they were created, so initialize logging before
// constructing long-lived components.
package logging
