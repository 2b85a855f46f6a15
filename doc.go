// Package authflow coordinates the login, registration and logout forms of a
// site whose accounts live with an external identity provider.
//
// An [Engine] is built once through [Builder.Build] and is safe for concurrent
// use. It mints one flow per mounted form ([LoginFlow], [RegisterFlow],
// [LogoutFlow]); each flow owns exactly one [FlowState] and a teardown scope.
// Closing a flow cancels its in-flight provider calls and pending redirects, and
// any result that arrives afterwards is dropped.
//
// # Architecture boundaries
//
// authflow is the public surface. The decisions (which call, which message,
// where to navigate) are pure reducers under internal/flows; this package is
// the adapter that runs their effects against an [idp.Gateway], a
// [notify.Notifier] and a [site.Navigator], and records outcomes to metrics and
// audit.
//
// # What this package must NOT do
//
//   - Persist credentials or drafts beyond the life of a flow.
//   - Let an unverified password session reach post-auth navigation.
//   - Import any sub-package that re-imports authflow (no import cycles).
package authflow
