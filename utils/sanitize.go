package utils

import "github.com/microcosm-cc/bluemonday"

// Posts and profiles are plain text; strip all markup rather than allowing a
// UGC subset.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize removes HTML from user supplied text to prevent stored XSS.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
