package middleware

import (
	"github.com/go-chi/cors"
)

// CORS builds the cors.Options for the API. The mobile app's webview origins
// plus the local dev server are the defaults when nothing is configured.
// A wildcard origin forces AllowCredentials off, since browsers reject
// credentials combined with "*".
func CORS(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"capacitor://localhost", "http://localhost:3000"}
	}

	allowCreds := true
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}
