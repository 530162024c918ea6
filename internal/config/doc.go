// Package config handles configuration loading for pepper-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from PEPPER_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/pepper/gateway.yaml
//  3. ~/.config/pepper/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	provider:
//	  api_key: "${PEPPER_PROVIDER_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// The two secrets also have direct environment fallbacks when the config
// leaves them empty: PEPPER_PROVIDER_API_KEY and PEPPER_BEARER_TOKEN.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Upstream provider:
//
//	provider:
//	  api_key: "${PEPPER_PROVIDER_API_KEY}"   # required
//	  base_url: ""                            # OpenAI-compatible endpoint override
//	  model: "claude-3-haiku-20240307"
//	  max_tokens: 500
//	  temperature: 0.7
//	  timeout: "60s"
//	  max_tool_rounds: 4
//
// Authentication:
//
//	auth:
//	  bearer_token: "${PEPPER_BEARER_TOKEN}"  # empty => auth disabled
//
// Database:
//
//	database:
//	  path: "/var/lib/pepper/gateway.db"
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "pepper-gateway"
//	  auth_key: "${TS_AUTHKEY}"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() fails when provider.api_key or database.path is missing, or when
// tailscale is enabled without a hostname. An empty auth.bearer_token is
// allowed and puts the gateway in unauthenticated dev mode.
package config
