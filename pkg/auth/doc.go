// Package auth provides pluggable authentication for the parley server.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// orchestration engine. The middleware injects the authenticated user ID
// for conversation ownership checks and the tenant identifier for storage
// scoping.
package auth
