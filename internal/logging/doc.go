// Package logging configures kwscan's slog output.
//
// Without --debug, logs are human-readable text on stderr at the configured
// level. With --debug, JSON logs are also written to ~/.kwscan/logs/kwscan.log
// with size-based rotation. Child worker processes log to their inherited
// stderr so read failures surface on the parent's console.
package logging
