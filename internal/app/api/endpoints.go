package api

import (
	"context"
	"net/http"
	"net/url"

	"whatsgram/internal/app/message"
	"whatsgram/internal/app/session"
	"whatsgram/internal/app/user"
	"whatsgram/internal/pkg/errs"
)

// RegisterInput is the body of the registration endpoint.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Gender   string `json:"gender"`
}

// LoginInput is the body of the login endpoint.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	return c.do(ctx, call{
		route:  "POST /api/auth/register",
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   in,
	}, nil)
}

// Login exchanges credentials for a session payload.
func (c *Client) Login(ctx context.Context, in LoginInput) (*session.Session, error) {
	var sess session.Session
	if err := c.do(ctx, call{
		route:  "POST /api/auth/login",
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   in,
	}, &sess); err != nil {
		return nil, err
	}

	if !sess.Valid() {
		c.logger.Warn().Msg("Login response carried no user id")
		return nil, errs.NewError(errs.ErrRequestFailed)
	}

	return &sess, nil
}

// Logout ends the session on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{
		route:  "POST /api/auth/logout",
		method: http.MethodPost,
		path:   "/api/auth/logout",
	}, nil)
}

// CurrentChats lists the users the caller can converse with.
func (c *Client) CurrentChats(ctx context.Context) ([]user.Record, error) {
	var records []user.Record
	if err := c.do(ctx, call{
		route:  "GET /api/user/currentChats",
		method: http.MethodGet,
		path:   "/api/user/currentChats",
	}, &records); err != nil {
		return nil, err
	}

	if records == nil {
		records = []user.Record{}
	}
	return records, nil
}

// Search lists users matching text.
func (c *Client) Search(ctx context.Context, text string) ([]user.Record, error) {
	var records []user.Record
	if err := c.do(ctx, call{
		route:  "GET /api/user/search",
		method: http.MethodGet,
		path:   "/api/user/search",
		query:  url.Values{"search": []string{text}},
	}, &records); err != nil {
		return nil, err
	}

	if records == nil {
		records = []user.Record{}
	}
	return records, nil
}

// Messages returns the history of the conversation with conversationID in server order.
// A body without a messages field yields an empty list.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]message.Message, error) {
	var history message.History
	if err := c.do(ctx, call{
		route:  "GET /api/message/:id",
		method: http.MethodGet,
		path:   "/api/message/" + conversationID,
	}, &history); err != nil {
		return nil, err
	}

	if history.Messages == nil {
		return []message.Message{}, nil
	}
	return history.Messages, nil
}

// Send posts text to the conversation with conversationID.
func (c *Client) Send(ctx context.Context, conversationID string, text string) error {
	return c.do(ctx, call{
		route:  "POST /api/message/send/:id",
		method: http.MethodPost,
		path:   "/api/message/send/" + conversationID,
		body:   message.SendInput{Message: text},
	}, nil)
}
