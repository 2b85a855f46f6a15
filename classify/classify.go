// Package classify maps identity provider error codes to user-facing
// messages and severities.
//
// Classification is a pure lookup over closed tables. Flow code never embeds
// provider codes or messages directly; it picks a table and calls Classify.
package classify

import (
	"strings"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/notify"
)

// Result is the classified form of a provider failure.
type Result struct {
	Message  string
	Severity notify.Severity
	// Known is false when the code fell through to the fallback.
	Known bool
}

// Table maps provider codes to results.
type Table map[string]Result

// FallbackMessage is used when an unknown code arrives without provider text.
const FallbackMessage = "Authentication failed. Please try again."

// Login is the table used by credential sign-in.
var Login = Table{
	idp.CodeInvalidEmail:         {Message: "Invalid email address.", Severity: notify.SeverityError, Known: true},
	idp.CodeUserDisabled:         {Message: "This account has been disabled.", Severity: notify.SeverityError, Known: true},
	idp.CodeUserNotFound:         {Message: "No account found with this email.", Severity: notify.SeverityError, Known: true},
	idp.CodeWrongPassword:        {Message: "Incorrect password.", Severity: notify.SeverityError, Known: true},
	idp.CodeInvalidCredential:    {Message: "Invalid email or password.", Severity: notify.SeverityError, Known: true},
	idp.CodeNetworkRequestFailed: {Message: "Network error. Please check your connection.", Severity: notify.SeverityError, Known: true},
	idp.CodeTooManyRequests:      {Message: "Too many attempts. Please try again later.", Severity: notify.SeverityWarning, Known: true},
}

// Register extends Login with the sign-up codes.
var Register = Login.With(Table{
	idp.CodeEmailAlreadyInUse: {Message: "An account with this email already exists.", Severity: notify.SeverityError, Known: true},
	idp.CodeWeakPassword:      {Message: "Password is too weak. Use at least 6 characters.", Severity: notify.SeverityError, Known: true},
})

// With returns a new table containing t overlaid with extra.
func (t Table) With(extra Table) Table {
	out := make(Table, len(t)+len(extra))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Classify looks code up in t. Unknown codes fall back to the raw provider
// text at Error severity; if the provider sent no text the fallback names
// the code.
func (t Table) Classify(code, raw string) Result {
	if r, ok := t[code]; ok {
		return r
	}
	msg := strings.TrimSpace(raw)
	if msg == "" {
		msg = FallbackMessage
		if code != "" {
			msg += " (" + code + ")"
		}
	}
	return Result{Message: msg, Severity: notify.SeverityError}
}
