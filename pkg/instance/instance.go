package instance

import "os"

// GetID returns the process identifier used in startup logs. SITESTOCK_INSTANCE_ID
// wins, then DYNO, then the hostname.
func GetID() string {
	for _, key := range []string{"SITESTOCK_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
