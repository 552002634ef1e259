package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment statuses.
const (
	CommentActive  = 0
	CommentDeleted = 1
)

// Comment is a reply on a post. ParentCID forms an adjacency list: nil
// means top-level; tree assembly looks children up by parent id, there
// are no materialized back-pointers.
type Comment struct {
	CID       string     `gorm:"column:cid;primaryKey;size:64" json:"cid"`
	PID       uint       `gorm:"column:pid;index:idx_comments_pid_parent" json:"pid"`
	UID       string     `gorm:"size:40;index" json:"uid"`
	ParentCID *string    `gorm:"column:parent_cid;size:64;index:idx_comments_pid_parent" json:"parent_cid,omitempty"`
	Content   string     `gorm:"type:text" json:"content"`
	Time      time.Time  `json:"time"`
	LastEdit  *time.Time `json:"last_edit,omitempty"`
	Status    int        `gorm:"default:0" json:"status"`
	Score     int        `gorm:"default:0" json:"score"`
}

// NewComment creates a comment with a fresh opaque CID.
func NewComment(pid uint, uid, content string, parent *string) *Comment {
	return &Comment{
		CID:       uuid.NewString(),
		PID:       pid,
		UID:       uid,
		ParentCID: parent,
		Content:   content,
		Time:      time.Now().UTC(),
		Status:    CommentActive,
	}
}

// IsDeleted reports whether the comment has been removed.
func (c *Comment) IsDeleted() bool {
	return c.Status == CommentDeleted
}
