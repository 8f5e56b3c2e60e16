// Package response renders JSON bodies and application errors for the HTTP
// layer.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/ClubDues/pkg/errors"
)

// HeaderDegraded marks a successful response whose side effects partially
// failed.
const HeaderDegraded = "X-Degraded"

// ErrorBody is the error envelope returned by every endpoint.
type ErrorBody struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// JSON writes data with statusCode.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Degraded writes data with 200 and sets X-Degraded when degraded is true.
func Degraded(w http.ResponseWriter, degraded bool, data interface{}) {
	if degraded {
		w.Header().Set(HeaderDegraded, "true")
	}
	JSON(w, http.StatusOK, data)
}

// Error maps err to its HTTP status and writes the error envelope.  Internal
// failures are masked.
func Error(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	body := ErrorBody{
		Code: string(code),
		Kind: string(errors.KindOf(err)),
	}

	var appErr *errors.AppError
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		body.Message = errors.DefaultMessageForCode(errors.ErrCodeInternal)
	} else if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Detail = appErr.Detail
	} else {
		body.Message = err.Error()
	}
	JSON(w, status, body)
}

//Personal.AI order the ending
