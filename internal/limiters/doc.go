// Package limiters provides Redis-backed throttles used by the flow adapter.
//
// # Limiters
//
//   - [VerificationLimiter]: per-account fixed window on verification-email
//     dispatch (unverified sign-ins and explicit resends share the budget).
//
// All limiters are nil-safe: calling Allow on a nil receiver returns nil.
//
// # Architecture boundaries
//
// Each limiter owns its own Redis key namespace and error types. Policy thresholds
// come from Config structs supplied at construction time.
//
// # What this package must NOT do
//
//   - Import authflow or any sibling internal package.
//   - Make policy decisions beyond counting. The flow adapter decides consequences.
package limiters
