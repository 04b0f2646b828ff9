package config

import (
	"strings"
	"time"
)

// APIConfig contains helpdesk backend configuration.
type APIConfig struct {
	// URL is the backend base URL; auth endpoints are resolved relative to it.
	URL string `env:"URL" envDefault:"http://localhost:3000/api"`

	// Timeout bounds each backend request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// ErrorMessagePath is a JMESPath expression selecting the message from error bodies.
	ErrorMessagePath string `env:"ERROR_MESSAGE_PATH" envDefault:"message"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.URL = strings.TrimRight(strings.TrimSpace(a.URL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
	a.ErrorMessagePath = strings.TrimSpace(a.ErrorMessagePath)
	if a.ErrorMessagePath == "" {
		a.ErrorMessagePath = "message"
	}
}
