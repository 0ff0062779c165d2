// Package timeouts centralizes timeout values for handler operations.
//
// Used with context.WithTimeout around database and other I/O inside
// HTTP handlers, so individual call sites stay consistent.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads or lookups
//   - Medium: list queries and moderate writes
//   - Long: multi-step writes touching several collections
package timeouts

import "time"

const (
	Ping   = 2 * time.Second
	Short  = 5 * time.Second
	Medium = 10 * time.Second
	Long   = 30 * time.Second
)
