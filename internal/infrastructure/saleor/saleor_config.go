package saleor

import (
	"errors"
	"net/url"
	"time"
)

// Config holds configuration for the Saleor GraphQL API
type Config struct {
	// GraphQLURL is the absolute URL of the GraphQL endpoint
	GraphQLURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// DefaultTimeoutSeconds is used when TimeoutSeconds is not set
const DefaultTimeoutSeconds = 30

// Errors for Saleor configuration
var (
	ErrConfigMissingURL = errors.New("saleor: graphql url is required")
	ErrConfigInvalidURL = errors.New("saleor: graphql url must be absolute http(s)")
)

// NewConfig creates a new Saleor configuration with defaults
func NewConfig(graphQLURL string) *Config {
	return &Config{
		GraphQLURL:     graphQLURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.GraphQLURL == "" {
		return ErrConfigMissingURL
	}
	u, err := url.Parse(c.GraphQLURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrConfigInvalidURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return nil
}

// Timeout returns the request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
