package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"phora/internal/database"
	"phora/internal/models"

	"gorm.io/gorm"
)

// Seeder orchestrates bulk creation of demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll deletes every seeded table. Order matters for foreign rows.
func (s *Seeder) ClearAll() error {
	for _, model := range database.Models() {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", model, err)
		}
	}
	return nil
}

// SeedCommunity creates users, a handful of subs, and an admin account.
func (s *Seeder) SeedCommunity(numUsers int) ([]*models.User, []*models.Sub, error) {
	admin, err := s.factory.CreateUser(func(u *models.User) {
		u.Name = "admin"
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.db.Create(&models.UserMetadata{UID: admin.UID, Key: "admin", Value: "1"}).Error; err != nil {
		return nil, nil, err
	}

	users := []*models.User{admin}
	for i := 1; i < numUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, nil, err
		}
		users = append(users, u)
	}

	numSubs := numUsers/10 + 3
	subs := make([]*models.Sub, 0, numSubs)
	for i := 0; i < numSubs; i++ {
		founder := users[rand.Intn(len(users))]
		sub, err := s.factory.CreateSub(founder)
		if err != nil {
			return nil, nil, err
		}
		subs = append(subs, sub)
	}

	log.Printf("Created %d users and %d subs", len(users), len(subs))
	return users, subs, nil
}

// SeedContent fills the subs with posts, legacy-shaped posts, comments
// and votes.
func (s *Seeder) SeedContent(users []*models.User, subs []*models.Sub, numPosts int) error {
	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[rand.Intn(len(users))]
		sub := subs[rand.Intn(len(subs))]

		// one in five posts is legacy-shaped to exercise backfill
		if i%5 == 0 {
			post, err := s.factory.CreateLegacyPost(author, sub)
			if err != nil {
				return err
			}
			posts = append(posts, post)
			continue
		}

		post, err := s.factory.CreatePost(author, sub)
		if err != nil {
			return err
		}
		posts = append(posts, post)
	}

	var comments, votes int
	for _, post := range posts {
		roots := make([]*models.Comment, 0, 4)
		for i := 0; i < rand.Intn(5); i++ {
			c, err := s.factory.CreateComment(users[rand.Intn(len(users))], post, nil)
			if err != nil {
				return err
			}
			roots = append(roots, c)
			comments++
		}
		for _, root := range roots {
			for i := 0; i < rand.Intn(3); i++ {
				if _, err := s.factory.CreateComment(users[rand.Intn(len(users))], post, root); err != nil {
					return err
				}
				comments++
			}
		}

		for _, voter := range pick(users, rand.Intn(len(users)/2+1)) {
			if voter.UID == post.UID {
				continue
			}
			vote := &models.PostVote{PID: post.PID, UID: voter.UID, Positive: rand.Intn(4) != 0, Time: time.Now().UTC()}
			if err := s.db.Create(vote).Error; err != nil {
				return err
			}
			votes++
		}
	}

	log.Printf("Created %d posts, %d comments, %d votes", len(posts), comments, votes)
	return nil
}

// pick returns up to n distinct users chosen at random.
func pick(users []*models.User, n int) []*models.User {
	if n >= len(users) {
		n = len(users)
	}
	idx := rand.Perm(len(users))[:n]
	out := make([]*models.User, 0, n)
	for _, i := range idx {
		out = append(out, users[i])
	}
	return out
}
