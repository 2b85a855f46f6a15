package flows

// User-facing texts. Templates take the e-mail address or provider label.
const (
	MsgLoginSuccess          = "Login successful! Redirecting..."
	MsgVerifyBeforeLogin     = "Please verify your email address before logging in. A new verification email has been sent to your inbox."
	MsgVerificationResentFmt = "Please verify your email address. A new verification email has been sent to %s."
	MsgVerifyLimited         = "Please verify your email address before logging in. Too many verification emails were requested recently; use the latest one in your inbox."
	MsgVerifyNotSent         = "Please verify your email address before logging in. We could not send a new verification email; use Resend to try again."

	MsgResendMissingEmail    = "Please enter your email address first."
	MsgResendMissingPassword = "Please enter your password to resend the verification email."
	MsgResendSentFmt         = "Verification email sent to %s. Please check your inbox."
	MsgResendFailed          = "Failed to send verification email. Please try again."
	MsgResendLimited         = "Too many verification emails requested. Please wait before trying again."

	MsgFederatedSuccessFmt = "%s %s successful! Redirecting..."
	MsgFederatedFailureFmt = "%s %s failed. Please try again."

	MsgPasswordMismatch  = "Passwords do not match."
	MsgPasswordShortFmt  = "Password must be at least %d characters long."
	MsgTermsNotAccepted  = "You must agree to the Terms & Conditions."
	MsgRegisteredFmt     = "Account created! We sent a verification link to %s. Please verify your email before logging in."
	MsgRegisteredNoEmail = "Account created! Please verify your email before logging in."
	MsgRegisteredNotSent = "Account created! We could not send a verification email; request a new one from the login page."

	MsgLoggingOut    = "Logging you out securely..."
	MsgLoggedOut     = "You have been logged out."
	MsgLogoutFailed  = "Logout failed. Please try again."
	verbLogin        = "login"
	verbRegistration = "sign-up"
)
