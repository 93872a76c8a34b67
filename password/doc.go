// Package password hashes and verifies credentials with argon2id.
// Hashes are stored in PHC string format so parameters travel with the
// digest and can be raised later without invalidating existing hashes.
//
// The package is a pure hash/compare collaborator: password policy (length
// minimums) belongs to the engine, not here.
package password
