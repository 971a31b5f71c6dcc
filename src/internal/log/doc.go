// Package log provides simple leveled logging for tinydnsproxy.
//
// The listener, the request workers and the block list refresh loop all log
// through the same global functions, so writes are serialized by a mutex.
//
// # Log Levels
//
//   - DEBUG: per-request tracing (only shown in verbose mode)
//   - INFO: lifecycle and refresh progress
//   - WARN: skipped block list sources, upstream timeouts
//   - ERROR: failures (always written to stderr)
//
// # Example Usage
//
//	log.Infof("DNS proxy listening on %s", addr)
//	log.Warnf("Couldn't sync %s: %v", src, err)
//
//	log.SetVerbose(true)
//	log.Debugf("[%04x] query %s", id, name)
//
// Output control:
//
//	log.SetForceStdErr(true)       // send all logs to stderr
//	log.SetOutput(&buf, &buf)      // capture output in tests
package log
