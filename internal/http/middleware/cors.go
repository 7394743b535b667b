package middleware

import (
	"net/http"
	"strings"

	"github.com/fixpoint-as/repair-api/internal/config"
	"github.com/go-chi/cors"
)

// CORS returns a configured CORS middleware
func CORS(cfg *config.CORSConfig, environment string) func(http.Handler) http.Handler {
	allowedOrigins := cfg.AllowedOrigins

	if len(allowedOrigins) == 0 {
		if environment == "development" {
			allowedOrigins = []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			}
		} else {
			allowedOrigins = []string{}
		}
	}

	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}

	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials && !allowAll,
		MaxAge:           cfg.MaxAge,
	}

	if allowAll {
		options.AllowedOrigins = []string{"*"}
	} else {
		options.AllowOriginFunc = func(r *http.Request, origin string) bool {
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		}
	}

	return cors.Handler(options)
}
