// Package auth provides authentication for pepper-gateway.
//
// # Authentication Method
//
// A single static bearer token authorizes API clients. The token is a
// process-wide shared secret set once at startup from configuration; there
// is no per-caller identity, rotation, or expiry.
//
// Requests present the secret in the Authorization header:
//
//	Authorization: Bearer <token>
//
// Verification is a constant-time byte comparison (crypto/subtle), so a
// rejection reveals nothing about the configured secret beyond the generic
// error message.
//
// # HTTP Middleware
//
// Protect a handler:
//
//	verifier := auth.NewStaticVerifier([]byte(cfg.Auth.BearerToken))
//	mux.Handle("/v1/chat/completions", auth.HTTPAuthMiddleware(verifier)(handler))
//
// When no bearer token is configured the gateway skips the middleware
// entirely and serves unauthenticated (dev mode).
package auth
