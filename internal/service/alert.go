package service

import (
	"errors"

	"github.com/mmynk/compartilha/internal/api"
	"github.com/mmynk/compartilha/internal/auth"
	"github.com/mmynk/compartilha/internal/i18n"
)

// Alert codes. They are i18n message keys.
const (
	CodeGeneric        = "generic_error"
	CodeSessionExpired = "session_expired"
	CodeSessionRenewed = "session_renewed"
	CodeReadOnly       = "read_only"
)

// Alert is a blocking message shown once after a failed operation.
type Alert struct {
	Code string
	// Detail is the server's own message, shown instead of the code's text.
	Detail string
}

// Message returns the text to show in lang.
func (a Alert) Message(lang string) string {
	if a.Detail != "" {
		return a.Detail
	}
	return i18n.T(lang, a.Code)
}

func alertFor(err error) Alert {
	switch {
	case errors.Is(err, auth.ErrSessionExpired):
		return Alert{Code: CodeSessionExpired}
	case errors.Is(err, api.ErrUnauthorized):
		// The token was refreshed but the call itself is not repeated.
		return Alert{Code: CodeSessionRenewed}
	case errors.Is(err, ErrReadOnly):
		return Alert{Code: CodeReadOnly}
	}
	return Alert{Code: CodeGeneric, Detail: api.DetailOf(err)}
}
