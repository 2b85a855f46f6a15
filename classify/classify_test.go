package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/notify"
)

func TestLoginTableKnownCodes(t *testing.T) {
	tests := []struct {
		code     string
		message  string
		severity notify.Severity
	}{
		{idp.CodeInvalidEmail, "Invalid email address.", notify.SeverityError},
		{idp.CodeUserDisabled, "This account has been disabled.", notify.SeverityError},
		{idp.CodeUserNotFound, "No account found with this email.", notify.SeverityError},
		{idp.CodeWrongPassword, "Incorrect password.", notify.SeverityError},
		{idp.CodeNetworkRequestFailed, "Network error. Please check your connection.", notify.SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := Login.Classify(tt.code, "provider text that must be ignored")
			assert.True(t, got.Known)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.severity, got.Severity)
		})
	}
}

func TestRegisterTableExtendsLogin(t *testing.T) {
	for code := range Login {
		assert.Equal(t, Login.Classify(code, ""), Register.Classify(code, ""), code)
	}

	got := Register.Classify(idp.CodeEmailAlreadyInUse, "")
	assert.Equal(t, "An account with this email already exists.", got.Message)
	assert.Equal(t, notify.SeverityError, got.Severity)

	got = Register.Classify(idp.CodeWeakPassword, "")
	assert.True(t, got.Known)
	assert.NotEmpty(t, got.Message)

	// Sign-up codes stay out of the login table.
	assert.False(t, Login.Classify(idp.CodeEmailAlreadyInUse, "").Known)
}

func TestClassifyUnknownCode(t *testing.T) {
	t.Run("carries provider text", func(t *testing.T) {
		got := Login.Classify("auth/quota-exceeded", "Quota exceeded for this project.")
		assert.False(t, got.Known)
		assert.Equal(t, notify.SeverityError, got.Severity)
		assert.Contains(t, got.Message, "Quota exceeded for this project.")
	})

	t.Run("empty text names the code", func(t *testing.T) {
		got := Login.Classify("auth/quota-exceeded", "  ")
		require.NotEmpty(t, got.Message)
		assert.Contains(t, got.Message, "auth/quota-exceeded")
	})

	t.Run("empty code and text", func(t *testing.T) {
		got := Login.Classify("", "")
		assert.Equal(t, FallbackMessage, got.Message)
	})
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	before := len(Login)
	_ = Login.With(Table{"auth/custom": {Message: "x"}})
	assert.Len(t, Login, before)
}
