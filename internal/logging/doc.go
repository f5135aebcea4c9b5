// Package logging holds the slog conventions of calrelay: the text logger
// used by every command, shared attribute keys, request id propagation
// through context and helpers that keep account data out of log lines.
//
// Addresses are logged as a hash and tokens by their length only:
//
//	logger.Info("callback completed",
//	    logging.UserHash(info.Email),
//	    slog.String("access_token", logging.SanitizeToken(token)))
package logging
