// Package jwt is the token codec: it signs and parses the two token kinds
// the engine issues. Access tokens are self-contained (email, role,
// session version) so protected requests need no store round-trip; refresh
// tokens carry only the email plus a unique jti and are checked against
// the store because they are long-lived and must be revocable by rotation.
//
// Parse failures are classified into [ErrMalformed], [ErrSignatureInvalid]
// and [ErrExpired]. Business-logic mismatches (stale session version,
// unknown user) are the caller's concern, never this package's.
package jwt
