package ratelimit

import (
	"path"
)

// unlimited lists GET endpoints that are never limited.
var unlimited = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the first matching EndpointConfig, a zero-limit config for
// unlimited endpoints, or nil if no pattern matches.
func MatchEndpoint(urlPath string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && unlimited[urlPath] {
		return &EndpointConfig{Path: urlPath, Method: method}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if ok, err := path.Match(config.Path, urlPath); err == nil && ok {
			return config
		}
	}
	return nil
}
