package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the listen address for the HTTP server.
	Addr string `env:"HTTP_ADDR" envDefault:":8000"`

	// MaxUploadBytes caps the total size of a multipart submission.
	MaxUploadBytes int64 `env:"HTTP_MAX_UPLOAD_BYTES" envDefault:"52428800"`

	// AllowedOrigins lists origins permitted by the CORS middleware.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
}

const defaultMaxUploadBytes = 50 << 20 // 50MB

// Sanitize applies guardrails to HTTP configuration values.
func (c *HTTPConfig) Sanitize() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
}
