// Package message defines the chat message exchanged with the backend.
package message

import "unicode/utf8"

// Message is a single message of a conversation. The client never mutates it.
type Message struct {
	ID         string `json:"_id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"message"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// History is the body of the conversation history endpoint.
type History struct {
	Messages []Message `json:"messages"`
}

// SendInput is the body of the send endpoint.
type SendInput struct {
	Message string `json:"message"`
}

// MaxTextLength bounds a message body, in characters.
const MaxTextLength = 5000

// TooLong reports whether text exceeds MaxTextLength characters.
func TooLong(text string) bool {
	return utf8.RuneCountInString(text) > MaxTextLength
}
