/*
Package resp provides helpers for writing the JSON responses of the development backend.

Successful responses carry the payload as the body itself (a user, a list, a messages
envelope), the way the messaging backend does. Failures carry a
{"success": false, "message": ..., "code": ...} body that the client surfaces verbatim.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/logx"
)

// Failure is the body of every error response.
type Failure struct {
	// Success is always false; clients key off it to detect a rejection.
	Success bool `json:"success"`

	// Message is the user-facing reason.
	Message string `json:"message"`

	// Code is the business error code (see errs package).
	Code int `json:"code"`
}

// RespondJSON sets the Content-Type and writes payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
			"path", r.URL.Path,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	_, _ = w.Write(response)
}

// RespondSuccess writes data with HTTP 200.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, data)
}

// RespondCreated writes data with HTTP 201.
func RespondCreated(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusCreated, data)
}

// RespondError writes a Failure body derived from customErr.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, Failure{
		Success: false,
		Message: customErr.Message,
		Code:    customErr.Code,
	})
}
