package models

import "time"

// PostVote is an up/down vote on a post. At most one active vote per
// (uid, pid) is enforced by the vote engine inside its transaction, not
// by a uniqueness constraint: legacy rows may already violate one.
type PostVote struct {
	XID      uint      `gorm:"column:xid;primaryKey" json:"xid"`
	PID      uint      `gorm:"column:pid;index:idx_post_votes_pid_uid" json:"pid"`
	UID      string    `gorm:"size:40;index:idx_post_votes_pid_uid" json:"uid"`
	Positive bool      `json:"positive"`
	Time     time.Time `json:"time"`
}

// CommentVote is an up/down vote on a comment, structurally identical
// to PostVote.
type CommentVote struct {
	XID      uint      `gorm:"column:xid;primaryKey" json:"xid"`
	CID      string    `gorm:"column:cid;size:64;index:idx_comment_votes_cid_uid" json:"cid"`
	UID      string    `gorm:"size:40;index:idx_comment_votes_cid_uid" json:"uid"`
	Positive bool      `json:"positive"`
	Time     time.Time `json:"time"`
}
