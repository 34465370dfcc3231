/*
Package randx generates identifiers for the development backend.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

// UserID returns a new account identifier (hex UUID without dashes, document-id style).
func UserID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// MessageID returns a new message identifier.
func MessageID() string {
	return uuid.New().String()
}

// IsValidID reports whether id looks like an identifier produced by UserID or MessageID.
func IsValidID(id string) bool {
	if len(id) != 32 && len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
