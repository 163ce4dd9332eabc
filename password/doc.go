// Package password implements credential hashing, verification, and the
// strength policy.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Every hash carries a fresh random salt, so hashing the same input twice
// yields different digests that both verify.
//
// # Architecture boundaries
//
// This package owns hashing, verification, and the strength rules only.
// When and where to apply them is decided by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive
//     hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
