package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"phora/internal/cache"
	"phora/internal/database"
	"phora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func newTestResolver(t *testing.T) (*Resolver, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	log := slog.New(slog.DiscardHandler)

	local, err := cache.NewLocalBackend(128)
	require.NoError(t, err)
	shared, err := cache.NewLocalBackend(128)
	require.NoError(t, err)

	m := cache.NewManager(log, time.Second,
		cache.Region{Name: cache.RegionDefault, Backend: local, TTL: 30 * time.Second},
		cache.Region{Name: cache.RegionShared, Backend: shared, TTL: 5 * time.Minute},
	)
	return New(db, m, log, time.Second), db
}

func createPost(t *testing.T, db *gorm.DB, post *models.Post) *models.Post {
	t.Helper()
	if post.Title == "" {
		post.Title = "a post"
	}
	if post.SID == "" {
		post.SID = "sid-1"
	}
	if post.UID == "" {
		post.UID = "uid-1"
	}
	post.Posted = time.Now().UTC()
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestPostScore_ColumnAuthoritative(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	seven := 7
	post := createPost(t, db, &models.Post{Score: &seven})
	// A stale legacy row must be ignored once the column is set.
	require.NoError(t, db.Create(&models.PostMetadata{PID: post.PID, Key: models.PostMetaScore, Value: "999"}).Error)

	score, err := res.PostScore(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 7, score)
}

func TestPostScore_BackfillsFromLegacyMetadata(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	post := createPost(t, db, &models.Post{})
	require.NoError(t, db.Create(&models.PostMetadata{PID: post.PID, Key: models.PostMetaScore, Value: "33"}).Error)

	score, err := res.PostScore(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 33, score)

	// Read-after-write: the column is materialized so the next reader
	// never touches the metadata table.
	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, "pid = ?", post.PID).Error)
	require.NotNil(t, reloaded.Score)
	assert.Equal(t, 33, *reloaded.Score)
}

func TestPostScore_DefaultsToAuthorUpvote(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	post := createPost(t, db, &models.Post{})

	score, err := res.PostScore(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 1, score)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, "pid = ?", post.PID).Error)
	require.NotNil(t, reloaded.Score)
	assert.Equal(t, 1, *reloaded.Score)
}

func TestPostScore_MemoizedWithinTTL(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	ten := 10
	post := createPost(t, db, &models.Post{Score: &ten})

	first, err := res.PostScore(ctx, post)
	require.NoError(t, err)
	require.Equal(t, 10, first)

	// Mutate storage behind the resolver's back; the memoized value
	// stays until TTL or invalidation.
	require.NoError(t, db.Model(&models.Post{}).Where("pid = ?", post.PID).Update("score", 99).Error)

	second, err := res.PostScore(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 10, second)

	res.InvalidateAttr(ctx, cache.EntityPost, post.PID, AttrScore)

	ninetyNine := 99
	post.Score = &ninetyNine
	third, err := res.PostScore(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 99, third)
}

func TestPostDeleted_LegacyMarkers(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	t.Run("user deletion marker", func(t *testing.T) {
		post := createPost(t, db, &models.Post{})
		require.NoError(t, db.Create(&models.PostMetadata{PID: post.PID, Key: models.PostMetaDeleted, Value: "1"}).Error)

		state, err := res.PostDeleted(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, models.DeletedByUser, state)
	})

	t.Run("mod deletion marker", func(t *testing.T) {
		post := createPost(t, db, &models.Post{})
		require.NoError(t, db.Create(&models.PostMetadata{PID: post.PID, Key: models.PostMetaModDeleted, Value: "1"}).Error)

		state, err := res.PostDeleted(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, models.DeletedByMod, state)
	})

	t.Run("no marker means live", func(t *testing.T) {
		post := createPost(t, db, &models.Post{})

		state, err := res.PostDeleted(ctx, post)
		require.NoError(t, err)
		assert.Equal(t, models.DeletedNone, state)

		var reloaded models.Post
		require.NoError(t, db.First(&reloaded, "pid = ?", post.PID).Error)
		require.NotNil(t, reloaded.Deleted)
		assert.Equal(t, models.DeletedNone, *reloaded.Deleted)
	})
}

func TestPostNSFW_Backfill(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	post := createPost(t, db, &models.Post{})
	require.NoError(t, db.Create(&models.PostMetadata{PID: post.PID, Key: models.PostMetaNSFW, Value: "1"}).Error)

	nsfw, err := res.PostNSFW(ctx, post)
	require.NoError(t, err)
	assert.True(t, nsfw)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, "pid = ?", post.PID).Error)
	require.NotNil(t, reloaded.NSFW)
	assert.Equal(t, 1, *reloaded.NSFW)
}

func TestPostThumbnail_Backfill(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	post := createPost(t, db, &models.Post{})
	require.NoError(t, db.Create(&models.PostMetadata{PID: post.PID, Key: models.PostMetaThumbnail, Value: "thumbs/abc.png"}).Error)

	thumb, err := res.PostThumbnail(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, "thumbs/abc.png", thumb)
}

func TestPostSticky(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	post := createPost(t, db, &models.Post{SID: "sid-sticky"})
	other := createPost(t, db, &models.Post{SID: "sid-sticky"})
	require.NoError(t, db.Create(&models.SubMetadata{
		SID: "sid-sticky", Key: models.SubMetaSticky, Value: fmt.Sprint(post.PID),
	}).Error)

	sticky, err := res.PostSticky(ctx, post)
	require.NoError(t, err)
	assert.True(t, sticky)

	sticky, err = res.PostSticky(ctx, other)
	require.NoError(t, err)
	assert.False(t, sticky)
}

func TestPostAnnouncement(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	post := createPost(t, db, &models.Post{})
	other := createPost(t, db, &models.Post{})
	require.NoError(t, db.Create(&models.SiteMetadata{
		Key: models.SiteMetaAnnouncement, Value: fmt.Sprint(post.PID),
	}).Error)

	ann, err := res.PostAnnouncement(ctx, post)
	require.NoError(t, err)
	assert.True(t, ann)

	ann, err = res.PostAnnouncement(ctx, other)
	require.NoError(t, err)
	assert.False(t, ann)
}

func TestSubNSFW_Backfill(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	sub := models.NewSub("legacy_sub", "Legacy")
	require.NoError(t, db.Create(sub).Error)
	require.NoError(t, db.Create(&models.SubMetadata{SID: sub.SID, Key: models.SubMetaNSFW, Value: "1"}).Error)

	nsfw, err := res.SubNSFW(ctx, sub)
	require.NoError(t, err)
	assert.True(t, nsfw)

	var reloaded models.Sub
	require.NoError(t, db.First(&reloaded, "sid = ?", sub.SID).Error)
	require.NotNil(t, reloaded.NSFW)
	assert.Equal(t, 1, *reloaded.NSFW)
}

func TestUserScore_MaterializesZero(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	user, err := models.NewUser("legacyuser", "l@example.com", "password123")
	require.NoError(t, err)
	user.Score = nil
	require.NoError(t, db.Create(user).Error)

	score, err := res.UserScore(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "uid = ?", user.UID).Error)
	require.NotNil(t, reloaded.Score)
	assert.Equal(t, 0, *reloaded.Score)
}

func TestUserPrefs(t *testing.T) {
	t.Parallel()

	res, db := newTestResolver(t)
	ctx := context.Background()

	user, err := models.NewUser("prefuser", "p@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, db.Create(user).Error)

	// Defaults: nsfw on, the rest off.
	nsfw, err := res.ShowNSFW(ctx, user.UID)
	require.NoError(t, err)
	assert.True(t, nsfw)

	styles, err := res.ShowStyles(ctx, user.UID)
	require.NoError(t, err)
	assert.False(t, styles)

	newTab, err := res.ShowLinksNewTab(ctx, user.UID)
	require.NoError(t, err)
	assert.False(t, newTab)

	// Distinct preference keys must not collide in the cache: setting
	// one leaves the others at their memoized values.
	require.NoError(t, db.Create(&models.UserMetadata{UID: user.UID, Key: "styles", Value: "1"}).Error)
	res.InvalidateAttr(ctx, cache.EntityUser, user.UID, AttrUserPref, "styles")

	styles, err = res.ShowStyles(ctx, user.UID)
	require.NoError(t, err)
	assert.True(t, styles)

	nsfw, err = res.ShowNSFW(ctx, user.UID)
	require.NoError(t, err)
	assert.True(t, nsfw)
}
