// Package presence defines the wire format of the presence channel shared by the client and
// the development backend.
package presence

const (
	// EventOnlineUsers carries the complete list of online user ids.
	EventOnlineUsers = "getOnlineUsers"

	// QueryUserID is the query parameter identifying the connecting user.
	QueryUserID = "userId"

	// CloseSessionReplaced is the close code sent to a connection displaced by a newer one
	// for the same user.
	CloseSessionReplaced = 4001
)

// Frame is one server push on the presence channel.
type Frame struct {
	Event string   `json:"event"`
	Data  []string `json:"data"`
}

// OnlineUsers builds the frame announcing ids as the online set.
func OnlineUsers(ids []string) Frame {
	if ids == nil {
		ids = []string{}
	}
	return Frame{Event: EventOnlineUsers, Data: ids}
}
