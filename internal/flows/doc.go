// Package flows contains the pure state machines behind every auth form.
//
// Each reducer (Login, Register, Logout) takes the current State, an Event
// and a Deps value and returns a Transition: the next State plus an ordered
// list of Effects. Reducers never perform I/O. The root package owns the
// adapter that executes effects, feeds gateway results back in as events, and
// drops events that arrive after the form has been torn down.
//
// # Architecture boundaries
//
// Reducers decide what should happen (call the gateway, notify, navigate,
// record an outcome). They do NOT know how: there is no context, clock,
// logger or gateway in this package.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authflow (to avoid import cycles).
//   - Start goroutines or timers.
package flows
