package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fixpoint-as/repair-api/internal/config"
	"github.com/fixpoint-as/repair-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
)

func corsConfig(origins ...string) *config.CORSConfig {
	return &config.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func preflight(handler http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCORS_DevelopmentDefaultsToLocalhost(t *testing.T) {
	handler := middleware.CORS(corsConfig(), "development")(okHandler())

	w := preflight(handler, "http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(handler, "https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	handler := middleware.CORS(
		corsConfig("https://app.fixpoint.no", "https://admin.fixpoint.no"),
		"production",
	)(okHandler())

	w := preflight(handler, "https://app.fixpoint.no")
	assert.Equal(t, "https://app.fixpoint.no", w.Header().Get("Access-Control-Allow-Origin"))

	// Origin matching is case insensitive
	w = preflight(handler, "https://APP.fixpoint.no")
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(handler, "https://other.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardDisablesCredentials(t *testing.T) {
	handler := middleware.CORS(corsConfig("*"), "production")(okHandler())

	w := preflight(handler, "https://anywhere.example.com")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ProductionWithoutOriginsBlocksAll(t *testing.T) {
	handler := middleware.CORS(corsConfig(), "production")(okHandler())

	w := preflight(handler, "http://localhost:3000")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
