package chat

// Principal is an authenticated user as seen by the chat layer.
type Principal struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// PushDestination is an opaque device token registered by a user.
type PushDestination struct {
	ID       int64
	UserID   int64
	Endpoint string
}
