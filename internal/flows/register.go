package flows

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/authflow/notify"
)

// Draft is the in-progress registration form.
type Draft struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AgreeTerms      bool   `json:"agree_terms"`
}

// Redacted returns a copy with both password fields cleared.
func (d Draft) Redacted() Draft {
	d.Password = ""
	d.ConfirmPassword = ""
	return d
}

// ValidateDraft checks a draft locally. Rules are applied in order and the
// first violation wins: password mismatch, short password, terms.
func ValidateDraft(d Draft, minPasswordLength int) (string, bool) {
	if d.Password != d.ConfirmPassword {
		return MsgPasswordMismatch, false
	}
	if utf8.RuneCountInString(d.Password) < minPasswordLength {
		return fmt.Sprintf(MsgPasswordShortFmt, minPasswordLength), false
	}
	if !d.AgreeTerms {
		return MsgTermsNotAccepted, false
	}
	return "", true
}

// Register is the reducer for the sign-up form.
func Register(st State, ev Event, d Deps) Transition {
	switch ev.Kind {
	case EventSubmitRegistration:
		if st.Busy() {
			return ignore(st)
		}
		if msg, ok := ValidateDraft(ev.Draft, d.MinPasswordLength); !ok {
			rejected := record(OutcomeRegisterRejected, ev)
			rejected.Code = "validation"
			return Transition{
				State: State{Status: StatusFailed, ErrorMessage: msg, ErrorKind: KindValidation},
				Effects: []Effect{
					notifyEffect(notify.SeverityError, msg, d.ErrorAutoClose),
					rejected,
				},
			}
		}
		eff := call(OpRegister)
		eff.Draft = ev.Draft
		return Transition{State: submitting(), Effects: []Effect{eff}}

	case EventSubmitFederated:
		return submitFederated(st, ev)

	case EventOpenRoute:
		if st.Busy() {
			return ignore(st)
		}
		return Transition{State: st, Effects: []Effect{{Kind: EffectNavigateInternal, Route: ev.Route}}}

	case EventCallSucceeded, EventCallFailed:
		switch ev.Op {
		case OpRegister:
			if st.Status != StatusSubmitting {
				return ignore(st)
			}
			if ev.Kind == EventCallFailed {
				return credentialFailure(ev, d.RegisterErrors, OutcomeRegisterFailure, d)
			}
			return accountCreated(ev)
		case OpSendVerification:
			if st.Status != StatusSubmitting {
				return ignore(st)
			}
			return registered(ev, d)
		case OpFederatedSignIn:
			return federatedResult(st, ev, verbRegistration, d)
		}
	}
	return ignore(st)
}

// accountCreated names the new profile and dispatches its verification mail.
// The new account is never left signed in: the dispatch ends the session.
func accountCreated(ev Event) Transition {
	s := ev.Session
	effects := make([]Effect, 0, 2)
	if name := strings.TrimSpace(ev.Draft.FullName); name != "" {
		effects = append(effects, Effect{Kind: EffectUpdateProfile, Session: s, Message: name})
	}
	eff := call(OpSendVerification)
	eff.Session = s
	eff.Draft = ev.Draft
	effects = append(effects, eff)
	return Transition{State: submitting(), Effects: effects}
}

// registered finishes a password sign-up once the verification dispatch has
// resolved. The account exists either way; only the message differs.
func registered(ev Event, d Deps) Transition {
	email := strings.TrimSpace(ev.Draft.Email)
	if ev.Session != nil && ev.Session.Email != "" {
		email = ev.Session.Email
	}
	sev, msg := notify.SeveritySuccess, MsgRegisteredNoEmail
	switch {
	case ev.Kind == EventCallFailed:
		sev, msg = notify.SeverityWarning, MsgRegisteredNotSent
	case email != "":
		msg = fmt.Sprintf(MsgRegisteredFmt, email)
	}
	rec := record(OutcomeRegisterSuccess, ev)
	rec.Code = ""
	return Transition{
		State: State{Status: StatusSucceeded},
		Effects: []Effect{
			{Kind: EffectClearDraft},
			notifyEffect(sev, msg, d.RegisteredAutoClose),
			rec,
		},
	}
}
