/*
Package errs provides custom error types and application-level error code constants.

The codes identify validation, request and backend failures both inside the terminal client
and on the wire between the client and the development backend.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Form and Conversation Errors
const (
	// ErrRequiredFields indicates that a form was submitted with an empty required field.
	ErrRequiredFields = 2001

	// ErrPasswordMismatch indicates that the registration password and its confirmation differ.
	ErrPasswordMismatch = 2002

	// ErrConversationNotSelected indicates that an action needs a selected conversation.
	ErrConversationNotSelected = 2101

	// ErrConversationNotFound indicates that the counterpart of a conversation does not exist.
	ErrConversationNotFound = 2102

	// ErrMessageContentEmpty indicates that a message body was blank.
	ErrMessageContentEmpty = 2201

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length.
	ErrMessageContentTooLong = 2202
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates that the caller has no valid session.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates that the email/password pair was rejected.
	ErrInvalidCredentials = 3002

	// ErrUserAlreadyExists indicates that the email or username is taken.
	ErrUserAlreadyExists = 3003

	// ErrUserNotFound indicates that the referenced account does not exist.
	ErrUserNotFound = 3004

	// ErrInvalidUsername indicates that the username does not satisfy the naming rules.
	ErrInvalidUsername = 3005

	// ErrInvalidPassword indicates that the password does not satisfy the length rules.
	ErrInvalidPassword = 3006
)

// 4xxx: Client Transport Errors
const (
	// ErrRequestFailed indicates a network failure or an unreadable backend response.
	ErrRequestFailed = 4001

	// ErrBackendRejected carries a failure message returned by the backend, shown verbatim.
	ErrBackendRejected = 4002

	// ErrChatsUnavailable indicates that the conversation list could not be loaded.
	ErrChatsUnavailable = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
