// Package gateway orchestrates the pepper-gateway server components.
//
// # Overview
//
// The gateway package is the central coordinator of the pepper-gateway
// server. It owns the HTTP server, the agent invoker, the usage store, and
// the optional Tailscale listener, and it translates between the voice
// platform's chat-completion contract and agent invocations.
//
// # HTTP API
//
// The gateway exposes HTTP endpoints in api.go:
//
//   - GET / - Welcome payload
//   - GET /health - Liveness check (always 200 while the process is up)
//   - GET /v1/models - Static single-model list
//   - POST /v1/chat/completions - Main chat proxy (bearer auth)
//   - POST /test - Development echo endpoint (no auth)
//   - GET /v1/usage - Aggregated token usage stats (bearer auth)
//   - GET /metrics - Prometheus scrape endpoint (optional, config-gated)
//
// # Authentication
//
// When auth.bearer_token is configured, /v1/chat/completions and /v1/usage
// sit behind the bearer middleware from the auth package. A mismatched or
// missing token is rejected with a generic 401 before any agent invocation
// happens. With no token configured the gateway runs in dev mode: a warning
// is logged at startup and the endpoints are open.
//
// # Error Contract
//
//   - 401: bad or missing bearer credential
//   - 400: malformed body or empty message list
//   - 502: upstream provider failure; the body says "upstream provider
//     error" and nothing more
//
// A failed request never crashes the process.
//
// # Listeners
//
// By default the gateway listens on a plain TCP address. With
// tailscale.enabled it joins a tailnet via tsnet and serves on :80 there
// instead (tailscale.go).
package gateway
