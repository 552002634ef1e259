package models

import "time"

// SiteMetadata keys the core understands.
const (
	SiteMetaAnnouncement = "announcement"
)

// SiteMetadata is the global key/value configuration table, e.g. the
// pid of the active announcement post.
type SiteMetadata struct {
	XID   uint   `gorm:"column:xid;primaryKey" json:"xid"`
	Key   string `gorm:"size:255;index" json:"key"`
	Value string `gorm:"size:255" json:"value"`
}

// SiteLog action kinds.
const (
	SiteLogDeletion = 1
	SiteLogUsers    = 2
	SiteLogAnnounce = 3
	SiteLogSubs     = 4
	SiteLogMods     = 5
)

// SiteLog is the site-wide moderation log.
type SiteLog struct {
	LID    uint      `gorm:"column:lid;primaryKey" json:"lid"`
	Time   time.Time `json:"time"`
	Action int       `json:"action"`
	Desc   string    `gorm:"size:255" json:"desc"`
	Link   string    `gorm:"size:255" json:"link"`
}

// LiveChatMessage is a message in the site-wide /live chat. The username
// is denormalized so history reads skip the user table.
type LiveChatMessage struct {
	XID      uint      `gorm:"column:xid;primaryKey" json:"xid"`
	Username string    `gorm:"size:64" json:"username"`
	Message  string    `gorm:"size:255" json:"message"`
	Time     time.Time `json:"time"`
}
