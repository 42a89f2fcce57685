package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"wastemarket/mobile/internal/models"
)

// NetworkErrorMessage is surfaced whenever a request was sent but no
// response came back.
const NetworkErrorMessage = "Network error. Please check your connection."

type Kind int

const (
	// KindServer: the backend answered with a non-2xx status.
	KindServer Kind = iota + 1
	// KindNetwork: no response before the timeout or the connection failed.
	KindNetwork
	// KindLocal: the request could not be built or its response could not be read.
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindLocal:
		return "local"
	}
	return "unknown"
}

// APIError is the single failure shape the transport hands to callers.
// Success is always false; Errors is only populated from a server body.
type APIError struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors,omitempty"`
	Status  int                 `json:"-"`
	Kind    Kind                `json:"-"`
	Err     error               `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Unauthorized reports a 401 from the backend. Redirecting to a login
// screen is left to the caller.
func (e *APIError) Unauthorized() bool {
	return e.Kind == KindServer && e.Status == http.StatusUnauthorized
}

// AsAPIError unwraps err into an *APIError when it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Message returns the human-readable text for any error a service returns.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}

func serverError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Kind:   KindServer,
		Status: status,
	}

	var payload models.ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		apiErr.Errors = payload.Errors
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Request failed with status code %d", status)
	}
	apiErr.Err = fmt.Errorf("http status %d", status)
	return apiErr
}

func networkError(err error) *APIError {
	return &APIError{
		Kind:    KindNetwork,
		Message: NetworkErrorMessage,
		Err:     err,
	}
}

func localError(err error) *APIError {
	return &APIError{
		Kind:    KindLocal,
		Message: err.Error(),
		Err:     err,
	}
}
