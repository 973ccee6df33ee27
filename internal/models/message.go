package models

import "time"

const (
	MessageStatusUnread = "unread"
	MessageStatusRead   = "read"

	DefaultLatestMessages = 10
)

// Message is a direct note between two users. Sender and receiver names are
// filled from the users table on read.
type Message struct {
	ID           int64      `db:"id" json:"id"`
	SenderID     int64      `db:"sender_id" json:"senderId"`
	SenderName   string     `db:"sender_name" json:"senderName"`
	ReceiverID   int64      `db:"receiver_id" json:"receiverId"`
	ReceiverName string     `db:"receiver_name" json:"receiverName"`
	Content      string     `db:"content" json:"content"`
	Status       string     `db:"status" json:"status"`
	ReadAt       *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

func (m *Message) IsUnread() bool {
	return m.Status == MessageStatusUnread
}

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiverId" validate:"required,gt=0"`
	Content    string `json:"content" validate:"required,max=2000"`
}

// MessageFilter selects a user's inbox, or with PeerID set, both directions
// of the conversation between UserID and PeerID.
type MessageFilter struct {
	UserID int64
	PeerID int64
	Status string
}
