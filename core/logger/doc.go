// Package logger provides log/slog attribute helpers shared across the
// module. Helpers return an empty slog.Attr for zero values so call
// sites never need nil or empty checks:
//
//	log.Warn("request rejected",
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//		logger.Reason(string(decision.Reason)),
//		logger.Error(err),
//	)
package logger
