// Package idp defines the identity provider gateway consumed by the flows.
//
// The provider itself is a black box reached over the network. Implementations
// return a *session.Session on success and an *Error carrying a canonical
// "auth/..." code on failure.
package idp
