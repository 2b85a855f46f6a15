package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/session"
)

func kinds(effs []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effs))
	for _, e := range effs {
		out = append(out, e.Kind)
	}
	return out
}

func find(effs []Effect, k EffectKind) (Effect, bool) {
	for _, e := range effs {
		if e.Kind == k {
			return e, true
		}
	}
	return Effect{}, false
}

func submitLogin(t *testing.T, d Deps) (State, Effect) {
	t.Helper()
	creds := idp.Credentials{Email: "ada@example.com", Password: "secret1"}
	tr := Login(State{}, Event{Kind: EventSubmitCredentials, Credentials: creds}, d)
	require.False(t, tr.Ignored)
	require.Equal(t, StatusSubmitting, tr.State.Status)
	require.Len(t, tr.Effects, 1)
	require.Equal(t, EffectCall, tr.Effects[0].Kind)
	require.Equal(t, OpPasswordSignIn, tr.Effects[0].Op)
	return tr.State, tr.Effects[0]
}

func TestLoginVerifiedSucceedsAndNavigates(t *testing.T) {
	d := DefaultDeps()
	st, c := submitLogin(t, d)

	s := &session.Session{UserID: "u1", Email: "ada@example.com", EmailVerified: true, IDToken: "tok"}
	tr := Login(st, Succeeded(c, s), d)

	assert.Equal(t, StatusSucceeded, tr.State.Status)
	assert.Empty(t, tr.State.ErrorMessage)
	assert.Equal(t, []EffectKind{EffectNotify, EffectNavigateExternal, EffectRecord}, kinds(tr.Effects))

	n, _ := find(tr.Effects, EffectNotify)
	assert.Equal(t, notify.SeveritySuccess, n.Severity)
	assert.Equal(t, MsgLoginSuccess, n.Message)
	assert.Equal(t, d.SuccessAutoClose, n.AutoClose)

	nav, _ := find(tr.Effects, EffectNavigateExternal)
	assert.Equal(t, d.PostAuthURL, nav.URL)
	assert.Equal(t, d.RedirectDelay, nav.Delay)
}

func TestLoginUnverifiedSignsOutAndNeverNavigates(t *testing.T) {
	d := DefaultDeps()
	st, c := submitLogin(t, d)

	s := &session.Session{UserID: "u1", Email: "ada@example.com", IDToken: "tok"}
	tr := Login(st, Succeeded(c, s), d)

	require.Equal(t, StatusSubmitting, tr.State.Status)
	require.Equal(t, []EffectKind{EffectCall}, kinds(tr.Effects))
	send := tr.Effects[0]
	assert.Equal(t, OpSendVerification, send.Op)
	assert.Same(t, s, send.Session)

	dup := Login(tr.State, Event{Kind: EventSubmitCredentials}, d)
	assert.True(t, dup.Ignored)

	done := Login(tr.State, Succeeded(send, nil), d)
	assert.Equal(t, StatusAwaitingVerification, done.State.Status)
	assert.Equal(t, KindVerificationRequired, done.State.ErrorKind)
	assert.Equal(t, MsgVerifyBeforeLogin, done.State.ErrorMessage)

	_, navigates := find(done.Effects, EffectNavigateExternal)
	assert.False(t, navigates)
	_, navigatesInternal := find(done.Effects, EffectNavigateInternal)
	assert.False(t, navigatesInternal)

	n, _ := find(done.Effects, EffectNotify)
	assert.Equal(t, notify.SeverityWarning, n.Severity)
	assert.Contains(t, n.Message, "ada@example.com")
	assert.Equal(t, d.VerifyWarnAutoClose, n.AutoClose)

	rec, _ := find(done.Effects, EffectRecord)
	assert.Equal(t, OutcomeLoginUnverified, rec.Outcome)
	assert.Same(t, s, rec.Session)
}

func TestLoginUnverifiedReportsDispatchOutcome(t *testing.T) {
	d := DefaultDeps()
	cases := []struct {
		name   string
		code   string
		sev    notify.Severity
		note   string
		inline string
	}{
		{"throttled", idp.CodeTooManyRequests, notify.SeverityWarning, MsgResendLimited, MsgVerifyLimited},
		{"provider failure", idp.CodeNetworkRequestFailed, notify.SeverityError, MsgResendFailed, MsgVerifyNotSent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, c := submitLogin(t, d)
			s := &session.Session{UserID: "u1", Email: "ada@example.com"}
			gate := Login(st, Succeeded(c, s), d)
			done := Login(gate.State, Failed(gate.Effects[0], tc.code, ""), d)

			assert.Equal(t, StatusAwaitingVerification, done.State.Status)
			assert.Equal(t, tc.inline, done.State.ErrorMessage)
			assert.NotContains(t, done.State.ErrorMessage, "has been sent")

			n, ok := find(done.Effects, EffectNotify)
			require.True(t, ok)
			assert.Equal(t, tc.sev, n.Severity)
			assert.Equal(t, tc.note, n.Message)

			rec, _ := find(done.Effects, EffectRecord)
			assert.Equal(t, OutcomeLoginUnverified, rec.Outcome)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestLoginFailureIsClassified(t *testing.T) {
	d := DefaultDeps()
	cases := []struct {
		name string
		code string
		raw  string
		msg  string
		sev  notify.Severity
	}{
		{"wrong password", idp.CodeWrongPassword, "", "Incorrect password.", notify.SeverityError},
		{"network", idp.CodeNetworkRequestFailed, "", "Network error. Please check your connection.", notify.SeverityError},
		{"unknown code keeps provider text", "auth/quota-exceeded", "Quota exceeded.", "Quota exceeded.", notify.SeverityError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, c := submitLogin(t, d)
			tr := Login(st, Failed(c, tc.code, tc.raw), d)

			assert.Equal(t, StatusFailed, tr.State.Status)
			assert.Equal(t, KindCredential, tr.State.ErrorKind)
			assert.Equal(t, tc.msg, tr.State.ErrorMessage)

			n, ok := find(tr.Effects, EffectNotify)
			require.True(t, ok)
			assert.Equal(t, tc.sev, n.Severity)
			assert.Equal(t, tc.msg, n.Message)

			rec, _ := find(tr.Effects, EffectRecord)
			assert.Equal(t, OutcomeLoginFailure, rec.Outcome)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestLoginDoubleSubmitIgnored(t *testing.T) {
	d := DefaultDeps()
	st, _ := submitLogin(t, d)

	again := Login(st, Event{Kind: EventSubmitCredentials, Credentials: idp.Credentials{Email: "a@b.c", Password: "x"}}, d)
	assert.True(t, again.Ignored)
	assert.Empty(t, again.Effects)
	assert.Equal(t, st, again.State)

	fed := Login(st, Event{Kind: EventSubmitFederated, Provider: idp.ProviderGoogle}, d)
	assert.True(t, fed.Ignored)
}

func TestLoginLateResultIgnored(t *testing.T) {
	d := DefaultDeps()
	c := Effect{Kind: EffectCall, Op: OpPasswordSignIn}

	tr := Login(State{Status: StatusFailed}, Succeeded(c, &session.Session{EmailVerified: true}), d)
	assert.True(t, tr.Ignored)
	assert.Empty(t, tr.Effects)
}

func TestLoginFederated(t *testing.T) {
	d := DefaultDeps()
	for _, p := range idp.Providers {
		t.Run(string(p), func(t *testing.T) {
			tr := Login(State{}, Event{Kind: EventSubmitFederated, Provider: p}, d)
			require.Equal(t, StatusSubmitting, tr.State.Status)
			c := tr.Effects[0]
			require.Equal(t, OpFederatedSignIn, c.Op)
			require.Equal(t, p, c.Provider)

			// Unverified federated sessions still succeed.
			ok := Login(tr.State, Succeeded(c, &session.Session{Method: session.MethodFederated}), d)
			assert.Equal(t, StatusSucceeded, ok.State.Status)
			nav, found := find(ok.Effects, EffectNavigateExternal)
			require.True(t, found)
			assert.Equal(t, d.PostAuthURL, nav.URL)
			n, _ := find(ok.Effects, EffectNotify)
			assert.Equal(t, p.DisplayName()+" login successful! Redirecting...", n.Message)

			bad := Login(tr.State, Failed(c, idp.CodePopupClosedByUser, "closed"), d)
			assert.Equal(t, StatusFailed, bad.State.Status)
			assert.Equal(t, KindFederated, bad.State.ErrorKind)
			assert.Equal(t, p.DisplayName()+" login failed. Please try again.", bad.State.ErrorMessage)
		})
	}
}

func TestResendVerification(t *testing.T) {
	d := DefaultDeps()

	t.Run("missing email", func(t *testing.T) {
		tr := Login(State{}, Event{Kind: EventResendVerification, Credentials: idp.Credentials{Password: "x"}}, d)
		assert.False(t, tr.State.Resending)
		require.Len(t, tr.Effects, 1)
		assert.Equal(t, MsgResendMissingEmail, tr.Effects[0].Message)
		assert.Equal(t, notify.SeverityError, tr.Effects[0].Severity)
	})

	t.Run("missing password", func(t *testing.T) {
		tr := Login(State{}, Event{Kind: EventResendVerification, Credentials: idp.Credentials{Email: "a@b.c"}}, d)
		require.Len(t, tr.Effects, 1)
		assert.Equal(t, MsgResendMissingPassword, tr.Effects[0].Message)
	})

	creds := idp.Credentials{Email: "ada@example.com", Password: "secret1"}
	start := State{Status: StatusAwaitingVerification, ErrorMessage: MsgVerifyBeforeLogin, ErrorKind: KindVerificationRequired}

	t.Run("success keeps primary state", func(t *testing.T) {
		tr := Login(start, Event{Kind: EventResendVerification, Credentials: creds}, d)
		require.True(t, tr.State.Resending)
		require.Equal(t, OpResendVerification, tr.Effects[0].Op)

		dup := Login(tr.State, Event{Kind: EventResendVerification, Credentials: creds}, d)
		assert.True(t, dup.Ignored)

		done := Login(tr.State, Succeeded(tr.Effects[0], nil), d)
		assert.False(t, done.State.Resending)
		assert.Equal(t, StatusAwaitingVerification, done.State.Status)
		n, _ := find(done.Effects, EffectNotify)
		assert.Equal(t, "Verification email sent to ada@example.com. Please check your inbox.", n.Message)
		assert.Equal(t, d.ResendAutoClose, n.AutoClose)
	})

	t.Run("failure is not escalated", func(t *testing.T) {
		tr := Login(start, Event{Kind: EventResendVerification, Credentials: creds}, d)
		done := Login(tr.State, Failed(tr.Effects[0], idp.CodeWrongPassword, ""), d)
		assert.Equal(t, StatusAwaitingVerification, done.State.Status)
		assert.False(t, done.State.Resending)
		n, _ := find(done.Effects, EffectNotify)
		assert.Equal(t, MsgResendFailed, n.Message)
		assert.Equal(t, notify.SeverityError, n.Severity)
	})

	t.Run("rate limited", func(t *testing.T) {
		tr := Login(start, Event{Kind: EventResendVerification, Credentials: creds}, d)
		done := Login(tr.State, Failed(tr.Effects[0], idp.CodeTooManyRequests, ""), d)
		n, _ := find(done.Effects, EffectNotify)
		assert.Equal(t, MsgResendLimited, n.Message)
		assert.Equal(t, notify.SeverityWarning, n.Severity)
	})
}

func TestLoginOpenRoute(t *testing.T) {
	d := DefaultDeps()
	tr := Login(State{}, Event{Kind: EventOpenRoute, Route: "register"}, d)
	require.Len(t, tr.Effects, 1)
	assert.Equal(t, EffectNavigateInternal, tr.Effects[0].Kind)

	busy := Login(State{Status: StatusSubmitting}, Event{Kind: EventOpenRoute, Route: "register"}, d)
	assert.True(t, busy.Ignored)
}

func TestEveryTerminalBranchClearsSubmitting(t *testing.T) {
	d := DefaultDeps()
	ops := []Effect{
		{Kind: EffectCall, Op: OpPasswordSignIn},
		{Kind: EffectCall, Op: OpFederatedSignIn, Provider: idp.ProviderGitHub},
	}
	for _, c := range ops {
		for _, ev := range []Event{
			Succeeded(c, &session.Session{EmailVerified: true}),
			Succeeded(c, &session.Session{}),
			Failed(c, idp.CodeInternalError, "boom"),
		} {
			tr := Login(submitting(), ev, d)
			assert.False(t, tr.State.Busy(), "op=%s kind=%d", c.Op, ev.Kind)
		}
	}
}
