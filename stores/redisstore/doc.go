// Package redisstore is a Redis-backed [authcore.UserStore]. Each user is
// a hash keyed by email, with a secondary index from refresh-token value
// to owner; the refresh-token and session-version mutations run as Lua
// scripts so the compare-and-set the engine depends on is atomic on the
// server.
//
// Tests run against miniredis, no external Redis required.
package redisstore
