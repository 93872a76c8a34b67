// Package revocation holds the process-wide denylist of access tokens
// invalidated by explicit logout. Access tokens are otherwise
// self-contained, so this registry is the only record that a specific,
// still-unexpired token must no longer be accepted.
//
// The registry lives for the process lifetime and resets on restart.
// Every entry carries its token's natural expiry, so sweeping can bound
// memory without ever evicting a token early.
package revocation
