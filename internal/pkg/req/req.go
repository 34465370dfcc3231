/*
Package req provides helpers for binding JSON request bodies in the development backend.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"whatsgram/internal/pkg/errs"
)

// MaxBodySize caps JSON request bodies accepted by BindJSON.
const MaxBodySize int64 = 1 << 20 // 1 MB

// BindJSON decodes the JSON body of r into dst.
// Unknown fields and trailing content are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
