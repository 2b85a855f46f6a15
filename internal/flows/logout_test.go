package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/session"
	"github.com/MrEthical07/authflow/site"
)

func TestLogoutCancelMakesNoCall(t *testing.T) {
	d := DefaultDeps()
	req := Logout(State{}, Event{Kind: EventRequestLogout}, d)
	require.Equal(t, StatusConfirmPending, req.State.Status)
	assert.Empty(t, req.Effects)

	cancel := Logout(req.State, Event{Kind: EventCancelLogout}, d)
	assert.Equal(t, StatusIdle, cancel.State.Status)
	_, calls := find(cancel.Effects, EffectCall)
	assert.False(t, calls)

	// Confirm after cancel is a no-op.
	late := Logout(cancel.State, Event{Kind: EventConfirmLogout}, d)
	assert.True(t, late.Ignored)
}

func TestLogoutConfirmOnce(t *testing.T) {
	d := DefaultDeps()
	s := &session.Session{UserID: "u1", IDToken: "tok"}
	req := Logout(State{}, Event{Kind: EventRequestLogout}, d)
	conf := Logout(req.State, Event{Kind: EventConfirmLogout, Session: s}, d)
	require.Equal(t, StatusLoggingOut, conf.State.Status)

	c, ok := find(conf.Effects, EffectCall)
	require.True(t, ok)
	assert.Equal(t, OpSignOut, c.Op)
	assert.Same(t, s, c.Session)

	n, _ := find(conf.Effects, EffectNotify)
	assert.Equal(t, notify.SeverityInfo, n.Severity)
	assert.Equal(t, MsgLoggingOut, n.Message)

	for _, k := range []EventKind{EventConfirmLogout, EventCancelLogout, EventRequestLogout} {
		again := Logout(conf.State, Event{Kind: k, Session: s}, d)
		assert.True(t, again.Ignored, "event %d", k)
	}

	done := Logout(conf.State, Succeeded(c, nil), d)
	assert.Equal(t, StatusIdle, done.State.Status)
	nav, ok := find(done.Effects, EffectNavigateInternal)
	require.True(t, ok)
	assert.Equal(t, site.RouteHome, nav.Route)
}

func TestLogoutFailureReturnsToIdle(t *testing.T) {
	d := DefaultDeps()
	conf := Logout(State{Status: StatusConfirmPending}, Event{Kind: EventConfirmLogout}, d)
	c, _ := find(conf.Effects, EffectCall)

	done := Logout(conf.State, Failed(c, idp.CodeNetworkRequestFailed, ""), d)
	assert.Equal(t, StatusIdle, done.State.Status)
	assert.Equal(t, KindLogout, done.State.ErrorKind)
	assert.Equal(t, MsgLogoutFailed, done.State.ErrorMessage)

	// A fresh request clears the previous error.
	req := Logout(done.State, Event{Kind: EventRequestLogout}, d)
	assert.Equal(t, State{Status: StatusConfirmPending}, req.State)
}

func TestLogoutIgnoresForeignResults(t *testing.T) {
	d := DefaultDeps()
	tr := Logout(State{Status: StatusLoggingOut}, Event{Kind: EventCallSucceeded, Op: OpPasswordSignIn}, d)
	assert.True(t, tr.Ignored)
}
