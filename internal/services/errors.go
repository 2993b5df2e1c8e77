package services

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// UnknownErrorMessage is used when an error response carries no error.message.
const UnknownErrorMessage = "Unknown error"

// HTTPError is returned for any non-2xx API response.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the token was rejected.
func (e *HTTPError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// newHTTPError builds an [HTTPError] from a response body, reading error.message when present.
//
// Accounts endpoints use a flat {"error": "...", "error_description": "..."} shape, which is accepted too.
func newHTTPError(status int, body []byte) *HTTPError {
	msg := UnknownErrorMessage
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		switch {
		case res.Get("error.message").String() != "":
			msg = res.Get("error.message").String()
		case res.Get("error_description").String() != "":
			msg = res.Get("error_description").String()
		case res.Get("error").Type == gjson.String && res.Get("error").String() != "":
			msg = res.Get("error").String()
		}
	}
	return &HTTPError{Status: status, Message: msg}
}
