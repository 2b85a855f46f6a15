package flows

import (
	"time"

	"github.com/MrEthical07/authflow/classify"
	"github.com/MrEthical07/authflow/site"
)

// Deps carries the static policy every reducer reads. It is built once by
// the root engine from Config and never mutated.
type Deps struct {
	// PostAuthURL is the external destination after a successful sign-in.
	PostAuthURL   string
	RedirectDelay time.Duration
	// PostLogoutRoute is the internal route shown after logging out.
	PostLogoutRoute site.Route

	SuccessAutoClose    time.Duration
	ErrorAutoClose      time.Duration
	VerifyWarnAutoClose time.Duration
	ResendAutoClose     time.Duration
	RegisteredAutoClose time.Duration
	LoggingOutAutoClose time.Duration
	MinPasswordLength   int

	LoginErrors    classify.Table
	RegisterErrors classify.Table
}

// DefaultDeps returns the policy used when the engine is built without
// overrides.
func DefaultDeps() Deps {
	return Deps{
		PostAuthURL:         "https://codenovabd.com",
		RedirectDelay:       2 * time.Second,
		PostLogoutRoute:     site.RouteHome,
		SuccessAutoClose:    3 * time.Second,
		ErrorAutoClose:      5 * time.Second,
		VerifyWarnAutoClose: 8 * time.Second,
		ResendAutoClose:     6 * time.Second,
		RegisteredAutoClose: 8 * time.Second,
		LoggingOutAutoClose: 1500 * time.Millisecond,
		MinPasswordLength:   6,
		LoginErrors:         classify.Login,
		RegisterErrors:      classify.Register,
	}
}
