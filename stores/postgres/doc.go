// Package postgres is a pgx-backed [authcore.UserStore]. The refresh
// rotation compare-and-set and the session-version bump are single
// conditional UPDATE statements, so per-record atomicity comes from the
// database rather than from any in-process lock.
package postgres
