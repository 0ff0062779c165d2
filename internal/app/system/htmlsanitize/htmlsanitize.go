// Package htmlsanitize strips unsafe HTML from organizer-supplied
// content before it is stored. Event descriptions are rendered as HTML
// by the client, so everything that reaches the database must already
// be safe.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize returns s with scripts, event handlers, and dangerous URLs
// removed. Safe formatting tags and links survive.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}
