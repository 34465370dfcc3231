/*
Package errs provides custom error types and application-level error code constants.

This file maps error codes to their CustomError templates: the user-facing message and the
HTTP status the development backend answers with.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Form and Conversation Errors
	ErrRequiredFields:          {Code: ErrRequiredFields, Message: "Please fill in all required fields."},
	ErrPasswordMismatch:        {Code: ErrPasswordMismatch, Message: "Passwords do not match!"},
	ErrConversationNotSelected: {Code: ErrConversationNotSelected, Message: "Select a conversation first."},
	ErrConversationNotFound:    {Code: ErrConversationNotFound, Message: "Conversation not found.", Status: http.StatusNotFound},
	ErrMessageContentEmpty:     {Code: ErrMessageContentEmpty, Message: "Message is empty.", Status: http.StatusBadRequest},
	ErrMessageContentTooLong:   {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Invalid credentials", Status: http.StatusBadRequest},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "User already exists", Status: http.StatusBadRequest},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Password must be at least 6 characters.", Status: http.StatusBadRequest},

	// 4xxx: Client Transport Errors
	ErrRequestFailed:    {Code: ErrRequestFailed, Message: "An error occurred. Please try again."},
	ErrBackendRejected:  {Code: ErrBackendRejected, Message: "%s"},
	ErrChatsUnavailable: {Code: ErrChatsUnavailable, Message: "Failed to fetch chats."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
