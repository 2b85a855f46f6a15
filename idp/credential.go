package idp

import "context"

// ProviderCredential is what a popup hands back after the user approves the
// provider consent screen.
type ProviderCredential struct {
	IDToken     string
	AccessToken string
}

type credentialKey struct{}

// WithProviderCredential attaches a popup result to ctx. Gateways that cannot
// open a popup themselves read it back with CredentialFromContext.
func WithProviderCredential(ctx context.Context, cred ProviderCredential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

// CredentialFromContext returns the popup credential stored in ctx.
func CredentialFromContext(ctx context.Context) (ProviderCredential, bool) {
	cred, ok := ctx.Value(credentialKey{}).(ProviderCredential)
	if !ok || (cred.IDToken == "" && cred.AccessToken == "") {
		return ProviderCredential{}, false
	}
	return cred, true
}
