// Package jwt extracts identity claims from provider-issued ID tokens.
//
// ID tokens arrive in the body of a TLS response from the identity service.
// A [Reader] configured without verify keys trusts that channel and only
// decodes claims; with verify keys it checks the RS256 signature, issuer and
// audience before returning claims.
package jwt
