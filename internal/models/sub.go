package models

import (
	"time"

	"github.com/google/uuid"
)

// Sub statuses.
const (
	SubStatusOK     = 0
	SubStatusBanned = 1
)

// SubMetadata keys the resolver and services understand.
const (
	SubMetaFounder = "founder"
	SubMetaMod     = "mod1"
	SubMetaNSFW    = "nsfw"
	SubMetaSticky  = "sticky"
)

// Sub is a community section. NSFW is nullable for rows that predate the
// column; the resolver backfills it from SubMetadata on first read.
type Sub struct {
	SID     string `gorm:"column:sid;primaryKey;size:40" json:"sid"`
	Name    string `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Title   string `gorm:"size:128" json:"title"`
	Sidebar string `gorm:"type:text" json:"sidebar"`
	NSFW    *int   `json:"nsfw,omitempty"`
	Status  int    `gorm:"default:0" json:"status"`
}

// NewSub creates a sub with a fresh SID and empty sidebar.
func NewSub(name, title string) *Sub {
	return &Sub{
		SID:     uuid.NewString(),
		Name:    name,
		Title:   title,
		Sidebar: "",
		Status:  SubStatusOK,
	}
}

// SubMetadata is the legacy key/value satellite for subs (founder,
// modlist, nsfw flag, sticky-post pointer).
type SubMetadata struct {
	XID   uint   `gorm:"column:xid;primaryKey" json:"xid"`
	SID   string `gorm:"column:sid;size:40;index" json:"sid"`
	Key   string `gorm:"size:255" json:"key"`
	Value string `gorm:"size:255" json:"value"`
}

// SubFlair stores the link flairs available in a sub.
type SubFlair struct {
	XID  uint   `gorm:"column:xid;primaryKey" json:"xid"`
	SID  string `gorm:"column:sid;size:40;index" json:"sid"`
	Text string `gorm:"size:64" json:"text"`
}

// SubStylesheet stores a sub's custom CSS. At most one row per sub.
type SubStylesheet struct {
	XID     uint   `gorm:"column:xid;primaryKey" json:"xid"`
	SID     string `gorm:"column:sid;size:40;uniqueIndex" json:"sid"`
	Content string `gorm:"type:text" json:"content"`
}

// Subscription statuses.
const (
	SubscriptionSubscribed = 1
	SubscriptionBlocked    = 2
)

// SubSubscriber records a user's subscription (or block) of a sub.
type SubSubscriber struct {
	XID    uint      `gorm:"column:xid;primaryKey" json:"xid"`
	SID    string    `gorm:"column:sid;size:40;index" json:"sid"`
	UID    string    `gorm:"size:40;index" json:"uid"`
	Status int       `json:"status"`
	Time   time.Time `json:"time"`
	Order  int       `gorm:"column:sort_order" json:"order"`
}

// SubLog action kinds.
const (
	SubLogDeletion = 1
	SubLogUserBan  = 2
	SubLogFlair    = 3
	SubLogModEdit  = 4
	SubLogComment  = 5
	SubLogMods     = 6
)

// SubLog is a sub's moderation log. Write-only from services.
type SubLog struct {
	LID    uint      `gorm:"column:lid;primaryKey" json:"lid"`
	SID    string    `gorm:"column:sid;size:40;index" json:"sid"`
	Time   time.Time `json:"time"`
	Action int       `json:"action"`
	Desc   string    `gorm:"size:255" json:"desc"`
	Link   string    `gorm:"size:255" json:"link"`
}
