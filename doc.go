// Package authcore is a session-authentication core for HTTP-facing
// services. It issues, validates, rotates and revokes credentials: short
// lived access tokens, long lived rotating refresh tokens, a per-user
// session-version counter for bulk invalidation, and an in-process
// revocation list for individual logout.
//
// The package owns the token lifecycle only. Persistent user storage and
// password hashing are consumed through the [UserStore] and [Hasher]
// interfaces; adapters for an in-memory map, Redis and Postgres live under
// stores/. HTTP wiring stays with the host application — the middleware
// package provides a request guard, and examples/http-minimal shows a full
// server.
//
// An [Engine] is built once at startup through the [Builder] and is safe
// for concurrent use:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithUserStore(store).
//		Build()
package authcore
