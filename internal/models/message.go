package models

import "time"

// Message types, value of the Mtype field.
const (
	MessageTypeUserToUser      = 100
	MessageTypeUserToMods      = 101
	MessageTypeModAsUser       = 102
	MessageTypeModAsMod        = 103
	MessageTypeModDiscussion   = 104
	MessageTypeBanAppeal       = 105
	MessageTypeModNotification = 106
)

// Message statuses, values of the SenderStatus and ReceiverStatus
// fields. Sender and receiver manage their copy independently.
const (
	MessageStatusDefault = 200 // inbox for received, sent for sent
	MessageStatusSaved   = 201 // called "archived" in modmail
	MessageStatusTrashed = 202 // user to user only
	MessageStatusDeleted = 203 // user to user only
)

// Message is a private message. ReplyTo forms a thread; Replies counts
// direct replies. SID links modmail to its sub and is nil for plain
// user-to-user mail.
type Message struct {
	MID            uint      `gorm:"column:mid;primaryKey" json:"mid"`
	SentBy         string    `gorm:"size:40;index" json:"sentby"`
	ReceivedBy     string    `gorm:"size:40;index" json:"receivedby"`
	Subject        string    `gorm:"size:550" json:"subject"`
	Content        string    `gorm:"type:text" json:"content"`
	Posted         time.Time `json:"posted"`
	Mtype          int       `json:"mtype"`
	SenderStatus   int       `gorm:"default:200" json:"sender_status"`
	ReceiverStatus int       `gorm:"default:200" json:"receiver_status"`
	ReplyTo        *uint     `json:"reply_to,omitempty"`
	SID            *string   `gorm:"column:sid;size:40" json:"sid,omitempty"`
	Replies        int       `gorm:"default:0" json:"replies"`
}

// UserUnreadMessage marks a message as unread for a user. Rows are
// deleted when the user reads the message.
type UserUnreadMessage struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	UID string `gorm:"size:40;index" json:"uid"`
	MID uint   `gorm:"column:mid;index" json:"mid"`
}
