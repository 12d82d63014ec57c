package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig configures cross-origin request handling.
type CORSConfig struct {
	// AllowedOrigins lists origins permitted to make cross-origin requests.
	// "*" allows any origin but is rejected when AllowCredentials is set,
	// since the combination is never safe to emit.
	AllowedOrigins []string

	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig returns a restrictive default: no origins allowed until
// the deployment configures one explicitly.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         600,
	}
}

func (c CORSConfig) originAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			if c.AllowCredentials {
				continue
			}
			return true
		}
		if allowed == origin {
			return true
		}
	}
	return false
}

// CORS returns a gin.HandlerFunc enforcing cfg. Preflight OPTIONS requests
// are answered directly with 204; all other requests get the response
// headers set before falling through to the next handler.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		if origin == "" || !cfg.originAllowed(origin) {
			c.Next()
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if len(cfg.ExposedHeaders) > 0 {
			c.Writer.Header().Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
		}

		if c.Request.Method == http.MethodOptions {
			c.Writer.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
			c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
