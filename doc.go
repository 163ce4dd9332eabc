// Package authcore provides the authentication core for the Eden Map user
// API: credential hashing and verification, signed session tokens with
// sliding renewal, subscription-plan expiry metadata, and a self-service
// password-recovery flow built on short-lived numeric challenge codes.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types (Session, RecoveryReceipt, AuditEvent).
// Account persistence, mail delivery, and code generation are collaborators
// behind the [UserStore], [MailDispatcher], and [CodeSource] interfaces;
// ready-made implementations live in userstore/ and mail/.
//
// # What this package must NOT do
//
//   - Expose store clients or wire encodings in its public API.
//   - Translate errors to transport status codes — callers branch on the
//     sentinels in errors.go at their own edge.
//   - Run background timers: challenge expiry is checked lazily at
//     validation time, never by a sweeper.
//
// # Concurrency contract
//
// Token issue and verify are pure computations over (claims, clock, secret)
// and need no locking. Password hashing is deliberately CPU-expensive and
// should run on a bounded worker pool in busy servers. Concurrent
// RequestCode calls for one account race last-write-wins; the most recent
// code is the valid one.
package authcore
