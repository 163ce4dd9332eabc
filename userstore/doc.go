// Package userstore provides ready-made implementations of the
// authcore.UserStore contract: a Redis-backed store for deployments and
// an in-memory store for tests and examples.
//
// # Key layout (Redis)
//
//	<prefix>:acct:<id>     hash with the account fields
//	<prefix>:email:<email> string index -> account id
//	<prefix>:login:<login> string index -> account id
//
// Patch runs as a single Lua script so a password write and a challenge
// clear can never be observed separately.
package userstore
