// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User account statuses.
const (
	UserStatusOK          = 0
	UserStatusBanned      = 1
	UserStatusShadowBlock = 2
	UserStatusPurged      = 3
)

// CryptoBcrypt tags the credential hashing scheme so a future cipher
// migration can coexist with old rows.
const CryptoBcrypt = 1

// User represents a registered account.
// Score is the user's reputation and is nullable for rows that predate
// the column; the resolver backfills it on first read.
type User struct {
	UID      string    `gorm:"primaryKey;size:40" json:"uid"`
	Name     string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Email    string    `gorm:"size:128" json:"email"`
	Crypto   int       `json:"-"`
	Password string    `gorm:"size:255" json:"-"`
	Status   int       `gorm:"default:0" json:"status"`
	Score    *int      `json:"score,omitempty"`
	JoinDate time.Time `json:"join_date"`
}

// NewUser creates a user with a fresh UID and a bcrypt credential hash.
func NewUser(name, email, password string) (*User, error) {
	u := &User{
		UID:      uuid.NewString(),
		Name:     name,
		Email:    email,
		Status:   UserStatusOK,
		JoinDate: time.Now().UTC(),
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword hashes and stores the credential, tagging the scheme used.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Crypto = CryptoBcrypt
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether the given credential matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.Crypto != CryptoBcrypt {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// UserMetadata is the legacy key/value satellite for users (badges,
// display preferences). Read through the resolver, never directly.
type UserMetadata struct {
	XID   uint   `gorm:"column:xid;primaryKey" json:"xid"`
	UID   string `gorm:"size:40;index" json:"uid"`
	Key   string `gorm:"size:255" json:"key"`
	Value string `gorm:"size:255" json:"value"`
}

// UserBadge stores badge definitions referenced by UserMetadata rows
// with key "badge".
type UserBadge struct {
	BID   string `gorm:"column:bid;primaryKey;size:40" json:"bid"`
	Badge string `gorm:"size:255" json:"badge"`
	Name  string `gorm:"size:255" json:"name"`
	Text  string `gorm:"size:255" json:"text"`
}
