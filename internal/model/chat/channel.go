package chat

// Kind distinguishes two-party conversations from multi-member ones.
type Kind string

const (
	// KindDirect channels hold exactly one unordered pair of users.
	KindDirect Kind = "direct"
	// KindGroup channels hold an arbitrary member set.
	KindGroup Kind = "group"
)

// Channel is a messaging channel.
type Channel struct {
	ID         int64  `json:"id"`
	ChannelID  string `json:"channel_id"`
	Kind       Kind   `json:"channel_type"`
	LastUpdate int64  `json:"last_update"`
}

// Member binds a user to a channel together with their read cursor:
// the highest message sequence number the user has marked as read.
type Member struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Cursor    int64  `json:"cursor"`
}
