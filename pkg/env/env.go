package env

import "os"

// Lookup returns the first non-empty variable among keys, or fallback.
func Lookup(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return fallback
}
