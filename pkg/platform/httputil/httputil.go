// Package httputil centralizes JSON encoding and coded-error translation for
// the HTTP layer, so every handler produces the same error envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"factgate/pkg/apperrors"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
}

// ValidationError mirrors apperrors.ValidationError on the wire.
type ValidationError struct {
	Property        string `json:"property"`
	MessageTemplate string `json:"message_template"`
}

// ToHTTPStatus maps an error code onto a status code.
func ToHTTPStatus(code apperrors.Code) int {
	switch code {
	case apperrors.CodeAuthenticationFailed:
		return http.StatusUnauthorized
	case apperrors.CodeAccessDenied:
		return http.StatusForbidden
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded error into the JSON error envelope. Internal
// errors keep their description out of the response; everything else is a
// caller-visible policy or input violation and gets its message back.
func WriteError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) && code != apperrors.CodeInternal {
		resp.ErrorDescription = appErr.Message
		for _, ve := range appErr.ValidationErrors {
			resp.ValidationErrors = append(resp.ValidationErrors, ValidationError{
				Property:        ve.Property,
				MessageTemplate: ve.MessageTemplate,
			})
		}
	}

	WriteJSON(w, ToHTTPStatus(code), resp)
}

// Decode parses a JSON request body into T, writing the error envelope and
// returning ok=false on malformed input.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&v); err != nil {
		WriteError(w, apperrors.New(apperrors.CodeInvalidArgument, "malformed request body"))
		return v, false
	}
	return v, true
}
