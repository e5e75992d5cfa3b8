package chat

// MaxMessageLength caps the body of a posted message.
const MaxMessageLength = 512

// Message is one immutable chat message. Seq is assigned per channel,
// strictly increasing and gap-free, and doubles as the message id.
type Message struct {
	ChannelID string `json:"channel_id"`
	Seq       int64  `json:"message_id"`
	SenderID  string `json:"sender_id"`
	Body      string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}
