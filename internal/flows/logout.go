package flows

import "github.com/MrEthical07/authflow/notify"

// Logout is the reducer for the two-step logout control:
// Idle -> ConfirmPending -> LoggingOut -> Idle.
func Logout(st State, ev Event, d Deps) Transition {
	switch ev.Kind {
	case EventRequestLogout:
		if st.Status != StatusIdle {
			return ignore(st)
		}
		return Transition{State: State{Status: StatusConfirmPending}}

	case EventCancelLogout:
		if st.Status != StatusConfirmPending {
			return ignore(st)
		}
		return Transition{
			State:   State{Status: StatusIdle},
			Effects: []Effect{record(OutcomeLogoutCancelled, ev)},
		}

	case EventConfirmLogout:
		if st.Status != StatusConfirmPending {
			return ignore(st)
		}
		eff := call(OpSignOut)
		eff.Session = ev.Session
		return Transition{
			State: State{Status: StatusLoggingOut},
			Effects: []Effect{
				notifyEffect(notify.SeverityInfo, MsgLoggingOut, d.LoggingOutAutoClose),
				eff,
			},
		}

	case EventCallSucceeded, EventCallFailed:
		if ev.Op != OpSignOut || st.Status != StatusLoggingOut {
			return ignore(st)
		}
		if ev.Kind == EventCallFailed {
			return Transition{
				State: State{Status: StatusIdle, ErrorMessage: MsgLogoutFailed, ErrorKind: KindLogout},
				Effects: []Effect{
					notifyEffect(notify.SeverityError, MsgLogoutFailed, d.ErrorAutoClose),
					record(OutcomeLogoutFailure, ev),
				},
			}
		}
		return Transition{
			State: State{Status: StatusIdle},
			Effects: []Effect{
				notifyEffect(notify.SeveritySuccess, MsgLoggedOut, d.SuccessAutoClose),
				{Kind: EffectNavigateInternal, Route: d.PostLogoutRoute},
				record(OutcomeLogoutSuccess, ev),
			},
		}
	}
	return ignore(st)
}
