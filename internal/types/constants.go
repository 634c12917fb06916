package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

// AllowedOrigins is the origin whitelist shared by the CORS middleware
// and the websocket upgrader. Assembled once at startup: dev defaults,
// then CLIENT_URL, then the comma-separated ALLOWED_ORIGINS override.
var AllowedOrigins = buildAllowedOrigins()

func buildAllowedOrigins() []string {
	origins := []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
		"http://localhost:3000",
	}

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}
