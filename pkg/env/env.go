// Package env provides raw environment lookups for code that runs before the
// typed configuration is loaded, such as logger bootstrap.
package env

import "os"

// Get reads key from the process environment, treating unset and empty the
// same and returning fallback in both cases.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
