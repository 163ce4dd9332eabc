// Package token manages session-token issuance and verification: HS256
// signed JWTs carrying a fixed claims structure, validated against an
// injected clock with strict method checks suitable for low-latency
// authentication paths.
package token
