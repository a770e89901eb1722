package client

import (
	"errors"
	"fmt"
)

// ValidationError is a missing or malformed input caught before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthError is a 401 answer. Message is the server's text. Expired is set when the rejected
// request carried a session token rather than login credentials.
type AuthError struct {
	Message string
	Expired bool
}

func (e *AuthError) Error() string {
	if e.Expired {
		return "session expired: " + e.Message
	}
	return "authentication failed: " + e.Message
}

// NetworkError means the server could not be reached or did not answer in time.
type NetworkError struct {
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request timed out: %v", e.Err)
	}
	return fmt.Sprintf("server unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is any other non-2xx answer.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// FormatError is a response body that is not the expected JSON.
type FormatError struct {
	Status int
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid response (status %d): %v", e.Status, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Alert is the blocking message shown for a failed call.
type Alert struct {
	Title   string
	Message string
}

// AlertFor translates err into the alert the app shows.
func AlertFor(err error) Alert {
	var (
		validation *ValidationError
		authErr    *AuthError
		network    *NetworkError
		server     *ServerError
		format     *FormatError
	)
	switch {
	case errors.As(err, &validation):
		return Alert{Title: "Hata", Message: validation.Message}
	case errors.As(err, &authErr):
		if authErr.Expired {
			return Alert{Title: "Oturum sona erdi", Message: "Oturumunuzun süresi doldu. Lütfen tekrar giriş yapın."}
		}
		return Alert{Title: "Hatalı giriş", Message: authErr.Message}
	case errors.As(err, &network):
		if network.Timeout {
			return Alert{Title: "Bağlantı hatası", Message: "Sunucu zamanında yanıt vermedi. Lütfen tekrar deneyin."}
		}
		return Alert{Title: "Bağlantı hatası", Message: "Sunucuya ulaşılamıyor. Lütfen tekrar deneyin."}
	case errors.As(err, &server):
		if server.Message != "" {
			return Alert{Title: "Hata", Message: server.Message}
		}
		return Alert{Title: "Hata", Message: "İşlem başarısız oldu."}
	case errors.As(err, &format):
		return Alert{Title: "Hata", Message: "Sunucudan beklenmeyen veri formatı alındı."}
	}
	return Alert{Title: "Hata", Message: err.Error()}
}
