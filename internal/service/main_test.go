package service

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"phora/internal/cache"
	"phora/internal/database"
	"phora/internal/models"
	"phora/internal/repository"
	"phora/internal/resolver"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full storage stack over an in-memory database, with
// both cache regions in process memory.
type testEnv struct {
	db    *gorm.DB
	cache *cache.Manager
	res   *resolver.Resolver
	log   *slog.Logger

	users    repository.UserRepository
	subs     repository.SubRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	messages repository.MessageRepository
	site     repository.SiteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	log := slog.New(slog.DiscardHandler)

	local, err := cache.NewLocalBackend(256)
	require.NoError(t, err)
	shared, err := cache.NewLocalBackend(256)
	require.NoError(t, err)
	m := cache.NewManager(log, time.Second,
		cache.Region{Name: cache.RegionDefault, Backend: local, TTL: 30 * time.Second},
		cache.Region{Name: cache.RegionShared, Backend: shared, TTL: 5 * time.Minute},
	)

	timeout := time.Second
	return &testEnv{
		db:       db,
		cache:    m,
		res:      resolver.New(db, m, log, timeout),
		log:      log,
		users:    repository.NewUserRepository(db, m, timeout),
		subs:     repository.NewSubRepository(db, m, timeout),
		posts:    repository.NewPostRepository(db, m, timeout),
		comments: repository.NewCommentRepository(db, m, timeout),
		messages: repository.NewMessageRepository(db, m, timeout),
		site:     repository.NewSiteRepository(db, m, timeout),
	}
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := models.NewUser(name, name+"@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createSub(t *testing.T, name, founderUID string) *models.Sub {
	t.Helper()
	sub := models.NewSub(name, "about "+name)
	require.NoError(t, e.db.Create(sub).Error)
	require.NoError(t, e.db.Create(&models.SubMetadata{SID: sub.SID, Key: models.SubMetaFounder, Value: founderUID}).Error)
	return sub
}

func (e *testEnv) createPost(t *testing.T, sub *models.Sub, author *models.User) *models.Post {
	t.Helper()
	one := 1
	zero := 0
	post := &models.Post{
		SID:     sub.SID,
		UID:     author.UID,
		Ptype:   models.PostTypeText,
		Title:   "a post",
		Content: "body",
		Posted:  time.Now().UTC(),
		Score:   &one,
		Deleted: &zero,
		NSFW:    &zero,
	}
	require.NoError(t, e.db.Create(post).Error)
	return post
}

func (e *testEnv) createComment(t *testing.T, post *models.Post, author *models.User, parent *string) *models.Comment {
	t.Helper()
	comment := models.NewComment(post.PID, author.UID, "a comment", parent)
	require.NoError(t, e.db.Create(comment).Error)
	return comment
}

func (e *testEnv) userScore(t *testing.T, uid string) int {
	t.Helper()
	var user models.User
	require.NoError(t, e.db.First(&user, "uid = ?", uid).Error)
	if user.Score == nil {
		return 0
	}
	return *user.Score
}
