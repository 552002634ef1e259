package models

import (
	"time"
)

// Post types.
const (
	PostTypeText = 0
	PostTypeLink = 1
)

// Post deletion states.
const (
	DeletedNone   = 0
	DeletedByUser = 1
	DeletedByMod  = 2
)

// PostMetadata keys the resolver understands for compatibility backfill.
const (
	PostMetaScore      = "score"
	PostMetaDeleted    = "deleted"
	PostMetaModDeleted = "moddeleted"
	PostMetaNSFW       = "nsfw"
	PostMetaThumbnail  = "thumbnail"
)

// Post is a submission in a sub. Score, Deleted, NSFW and Thumbnail are
// nullable: rows created before those columns existed carry the values
// in PostMetadata instead, and the resolver materializes them into the
// column on first read.
type Post struct {
	PID       uint      `gorm:"column:pid;primaryKey" json:"pid"`
	SID       string    `gorm:"column:sid;size:40;index;not null" json:"sid"`
	UID       string    `gorm:"size:40;index;not null" json:"uid"`
	Ptype     int       `json:"ptype"`
	Title     string    `gorm:"size:512;not null" json:"title"`
	Link      string    `gorm:"size:256" json:"link"`
	Content   string    `gorm:"type:text" json:"content"`
	Posted    time.Time `json:"posted"`
	Score     *int      `json:"score,omitempty"`
	Deleted   *int      `json:"deleted,omitempty"`
	NSFW      *int      `json:"nsfw,omitempty"`
	Thumbnail *string   `gorm:"size:128" json:"thumbnail,omitempty"`

	// CommentCount is not persisted; computed at query time. Read-only
	// so the query-time alias still scans into it.
	CommentCount int `gorm:"->;-:migration" json:"comment_count"`
}

// PostMetadata is the legacy key/value satellite for posts (score,
// deletion markers, nsfw tag, thumbnail path).
type PostMetadata struct {
	XID   uint   `gorm:"column:xid;primaryKey" json:"xid"`
	PID   uint   `gorm:"column:pid;index" json:"pid"`
	Key   string `gorm:"size:255" json:"key"`
	Value string `gorm:"size:255" json:"value"`
}
