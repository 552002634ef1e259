// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"phora/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample user. Everyone gets the
// password "password123".
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := models.NewUser(
		gofakeit.Username()+strconv.Itoa(gofakeit.Number(100, 999)),
		gofakeit.Email(),
		"password123",
	)
	if err != nil {
		return nil, err
	}
	user.JoinDate = f.pastTime(365)

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSub persists a sub with founder metadata.
func (f *Factory) CreateSub(founder *models.User, overrides ...func(*models.Sub)) (*models.Sub, error) {
	sub := models.NewSub(gofakeit.Word()+strconv.Itoa(gofakeit.Number(10, 99)), gofakeit.Sentence(4))
	for _, override := range overrides {
		override(sub)
	}
	if err := f.db.Create(sub).Error; err != nil {
		return nil, err
	}
	md := []*models.SubMetadata{
		{SID: sub.SID, Key: models.SubMetaFounder, Value: founder.UID},
		{SID: sub.SID, Key: models.SubMetaMod, Value: founder.UID},
	}
	return sub, f.db.Create(&md).Error
}

// CreatePost persists a post. Roughly a third are link posts pointing
// at a random URL, the rest text posts.
func (f *Factory) CreatePost(user *models.User, sub *models.Sub, overrides ...func(*models.Post)) (*models.Post, error) {
	one := 1
	zero := 0
	post := &models.Post{
		SID:     sub.SID,
		UID:     user.UID,
		Ptype:   models.PostTypeText,
		Title:   gofakeit.Sentence(5),
		Content: gofakeit.Paragraph(1, 3, 5, "\n"),
		Posted:  f.pastTime(90),
		Score:   &one,
		Deleted: &zero,
		NSFW:    &zero,
	}

	if f.r.Intn(3) == 0 {
		post.Ptype = models.PostTypeLink
		post.Link = gofakeit.URL()
		post.Content = ""
		post.Title = fmt.Sprintf("%s — %s", gofakeit.DomainName(), post.Title)
	}

	for _, override := range overrides {
		override(post)
	}
	return post, f.db.Create(post).Error
}

// CreateLegacyPost persists a post with nil derived columns and the
// values parked in PostMetadata instead, the shape rows imported from
// the old system have. Reading them exercises the backfill path.
func (f *Factory) CreateLegacyPost(user *models.User, sub *models.Sub) (*models.Post, error) {
	post := &models.Post{
		SID:     sub.SID,
		UID:     user.UID,
		Ptype:   models.PostTypeText,
		Title:   gofakeit.Sentence(5),
		Content: gofakeit.Paragraph(1, 2, 4, "\n"),
		Posted:  f.pastTime(720),
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	md := []*models.PostMetadata{
		{PID: post.PID, Key: models.PostMetaScore, Value: strconv.Itoa(gofakeit.Number(-5, 120))},
		{PID: post.PID, Key: models.PostMetaNSFW, Value: strconv.Itoa(f.r.Intn(2))},
	}
	return post, f.db.Create(&md).Error
}

// CreateComment persists a comment, optionally as a reply.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	var parentCID *string
	if parent != nil {
		parentCID = &parent.CID
	}
	comment := models.NewComment(post.PID, user.UID, gofakeit.Sentence(12), parentCID)
	comment.Time = f.pastTime(30)
	if parent != nil && comment.Time.Before(parent.Time) {
		comment.Time = parent.Time.Add(time.Duration(f.r.Intn(3600)) * time.Second)
	}
	return comment, f.db.Create(comment).Error
}

// pastTime returns a random instant within the last maxDays days.
func (f *Factory) pastTime(maxDays int) time.Time {
	back := time.Duration(f.r.Intn(maxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back)
}
