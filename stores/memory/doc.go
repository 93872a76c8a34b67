// Package memory is a map-backed [authcore.UserStore] for tests, examples
// and single-process deployments that accept losing accounts on restart.
// All operations run under one mutex, which trivially satisfies the
// per-record atomicity the engine requires of its store.
package memory
