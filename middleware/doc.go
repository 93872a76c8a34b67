// Package middleware adapts the engine's Validate/Authorize pair to
// net/http. [Guard] authenticates the bearer token and attaches the
// resolved [authcore.Identity] to the request context; handlers read it
// back with [IdentityFromContext].
package middleware
