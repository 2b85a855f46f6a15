package identitytoolkit

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrEthical07/authflow/idp"
)

// serviceCodes maps REST error messages to canonical provider codes.
var serviceCodes = map[string]string{
	"EMAIL_NOT_FOUND":             idp.CodeUserNotFound,
	"INVALID_PASSWORD":            idp.CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   idp.CodeInvalidCredential,
	"INVALID_EMAIL":               idp.CodeInvalidEmail,
	"MISSING_EMAIL":               idp.CodeInvalidEmail,
	"USER_DISABLED":               idp.CodeUserDisabled,
	"EMAIL_EXISTS":                idp.CodeEmailAlreadyInUse,
	"WEAK_PASSWORD":               idp.CodeWeakPassword,
	"MISSING_PASSWORD":            idp.CodeWrongPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER": idp.CodeTooManyRequests,
	"QUOTA_EXCEEDED":              idp.CodeTooManyRequests,
	"INVALID_IDP_RESPONSE":        idp.CodeInvalidCredential,
	"INVALID_ID_TOKEN":            idp.CodeInvalidCredential,
	"USER_NOT_FOUND":              idp.CodeUserNotFound,
	"TOKEN_EXPIRED":               idp.CodeInvalidCredential,
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeError turns an error response body into an *idp.Error. Messages look
// like "WEAK_PASSWORD : Password should be at least 6 characters".
func decodeError(status int, body []byte) *idp.Error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Message == "" {
		if status == http.StatusTooManyRequests {
			return idp.NewError(idp.CodeTooManyRequests, http.StatusText(status))
		}
		return idp.NewError(idp.CodeInternalError, http.StatusText(status))
	}
	key, detail, _ := strings.Cut(env.Error.Message, ":")
	key = strings.TrimSpace(key)
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = key
	}
	if code, ok := serviceCodes[key]; ok {
		return idp.NewError(code, detail)
	}
	if status == http.StatusTooManyRequests {
		return idp.NewError(idp.CodeTooManyRequests, detail)
	}
	return idp.NewError(idp.CodeInternalError, env.Error.Message)
}
