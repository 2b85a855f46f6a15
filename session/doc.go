// Package session defines the Session value produced by identity provider
// calls.
//
// # Architecture boundaries
//
// A [Session] is a plain value. This package does NOT persist sessions, refresh
// tokens, or talk to the provider; the host owns storage and the idp package
// owns the wire protocol.
//
// # What this package must NOT do
//
//   - Import authflow, idp, or jwt (no upward imports).
//   - Log or serialize token fields.
package session
