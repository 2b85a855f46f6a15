package flows

import (
	"fmt"
	"strings"

	"github.com/MrEthical07/authflow/classify"
	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/notify"
)

// Login is the reducer for the sign-in form.
func Login(st State, ev Event, d Deps) Transition {
	switch ev.Kind {
	case EventSubmitCredentials:
		if st.Busy() {
			return ignore(st)
		}
		eff := call(OpPasswordSignIn)
		eff.Credentials = ev.Credentials
		return Transition{State: submitting(), Effects: []Effect{eff}}

	case EventSubmitFederated:
		return submitFederated(st, ev)

	case EventResendVerification:
		return requestResend(st, ev, d)

	case EventOpenRoute:
		if st.Busy() {
			return ignore(st)
		}
		return Transition{State: st, Effects: []Effect{{Kind: EffectNavigateInternal, Route: ev.Route}}}

	case EventCallSucceeded, EventCallFailed:
		switch ev.Op {
		case OpPasswordSignIn:
			if st.Status != StatusSubmitting {
				return ignore(st)
			}
			if ev.Kind == EventCallFailed {
				return credentialFailure(ev, d.LoginErrors, OutcomeLoginFailure, d)
			}
			return signedIn(ev, d)
		case OpSendVerification:
			if st.Status != StatusSubmitting {
				return ignore(st)
			}
			return verificationGate(ev, d)
		case OpFederatedSignIn:
			return federatedResult(st, ev, verbLogin, d)
		case OpResendVerification:
			return resendResult(st, ev, d)
		}
	}
	return ignore(st)
}

// signedIn applies the verification gate to a fresh password session. An
// unverified session stays Submitting until its verification mail is
// dispatched and the session ended.
func signedIn(ev Event, d Deps) Transition {
	s := ev.Session
	if !s.Verified() {
		eff := call(OpSendVerification)
		eff.Session = s
		eff.Credentials = ev.Credentials
		return Transition{State: submitting(), Effects: []Effect{eff}}
	}
	return succeeded(ev, MsgLoginSuccess, OutcomeLoginSuccess, d)
}

// verificationGate reports the dispatch triggered by an unverified sign-in.
// The user is told a mail went out only when it did.
func verificationGate(ev Event, d Deps) Transition {
	email := ev.Credentials.Email
	if ev.Session != nil && ev.Session.Email != "" {
		email = ev.Session.Email
	}
	sev, note, inline := notify.SeverityWarning, fmt.Sprintf(MsgVerificationResentFmt, email), MsgVerifyBeforeLogin
	switch {
	case ev.Kind == EventCallSucceeded:
	case ev.Code == idp.CodeTooManyRequests:
		note, inline = MsgResendLimited, MsgVerifyLimited
	default:
		sev, note, inline = notify.SeverityError, MsgResendFailed, MsgVerifyNotSent
	}
	return Transition{
		State: State{
			Status:       StatusAwaitingVerification,
			ErrorMessage: inline,
			ErrorKind:    KindVerificationRequired,
		},
		Effects: []Effect{
			notifyEffect(sev, note, d.VerifyWarnAutoClose),
			record(OutcomeLoginUnverified, ev),
		},
	}
}

func succeeded(ev Event, msg string, o Outcome, d Deps) Transition {
	return Transition{
		State: State{Status: StatusSucceeded},
		Effects: []Effect{
			notifyEffect(notify.SeveritySuccess, msg, d.SuccessAutoClose),
			{Kind: EffectNavigateExternal, URL: d.PostAuthURL, Delay: d.RedirectDelay},
			record(o, ev),
		},
	}
}

func credentialFailure(ev Event, table classify.Table, o Outcome, d Deps) Transition {
	r := table.Classify(ev.Code, ev.Message)
	return Transition{
		State: State{Status: StatusFailed, ErrorMessage: r.Message, ErrorKind: KindCredential},
		Effects: []Effect{
			notifyEffect(r.Severity, r.Message, d.ErrorAutoClose),
			record(o, ev),
		},
	}
}

func submitFederated(st State, ev Event) Transition {
	if st.Busy() {
		return ignore(st)
	}
	eff := call(OpFederatedSignIn)
	eff.Provider = ev.Provider
	return Transition{State: submitting(), Effects: []Effect{eff}}
}

// federatedResult handles a popup sign-in result. Federated identities are
// trusted as verified, so there is no verification gate here.
func federatedResult(st State, ev Event, verb string, d Deps) Transition {
	if st.Status != StatusSubmitting {
		return ignore(st)
	}
	label := ev.Provider.DisplayName()
	if ev.Kind == EventCallSucceeded {
		return succeeded(ev, fmt.Sprintf(MsgFederatedSuccessFmt, label, verb), OutcomeFederatedSuccess, d)
	}
	msg := fmt.Sprintf(MsgFederatedFailureFmt, label, verb)
	return Transition{
		State: State{Status: StatusFailed, ErrorMessage: msg, ErrorKind: KindFederated},
		Effects: []Effect{
			notifyEffect(notify.SeverityError, msg, d.ErrorAutoClose),
			record(OutcomeFederatedFailure, ev),
		},
	}
}

func requestResend(st State, ev Event, d Deps) Transition {
	if st.Busy() {
		return ignore(st)
	}
	if strings.TrimSpace(ev.Credentials.Email) == "" {
		return Transition{State: st, Effects: []Effect{
			notifyEffect(notify.SeverityError, MsgResendMissingEmail, d.ErrorAutoClose),
		}}
	}
	if ev.Credentials.Password == "" {
		return Transition{State: st, Effects: []Effect{
			notifyEffect(notify.SeverityError, MsgResendMissingPassword, d.ErrorAutoClose),
		}}
	}
	next := st
	next.Resending = true
	eff := call(OpResendVerification)
	eff.Credentials = ev.Credentials
	return Transition{State: next, Effects: []Effect{eff}}
}

func resendResult(st State, ev Event, d Deps) Transition {
	if !st.Resending {
		return ignore(st)
	}
	next := st
	next.Resending = false
	if ev.Kind == EventCallSucceeded {
		return Transition{State: next, Effects: []Effect{
			notifyEffect(notify.SeveritySuccess, fmt.Sprintf(MsgResendSentFmt, ev.Credentials.Email), d.ResendAutoClose),
			record(OutcomeVerificationSent, ev),
		}}
	}
	sev, msg := notify.SeverityError, MsgResendFailed
	if ev.Code == idp.CodeTooManyRequests {
		sev, msg = notify.SeverityWarning, MsgResendLimited
	}
	return Transition{State: next, Effects: []Effect{
		notifyEffect(sev, msg, d.ErrorAutoClose),
		record(OutcomeVerificationFailed, ev),
	}}
}
