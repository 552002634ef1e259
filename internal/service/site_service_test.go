package service

import (
	"context"
	"strings"
	"testing"

	"phora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteFixture(t *testing.T) (*testEnv, *SiteService, *models.Post, *models.Post) {
	t.Helper()

	env := newTestEnv(t)
	admin := env.createUser(t, "siteadmin")
	sub := env.createSub(t, "sitesub", admin.UID)
	first := env.createPost(t, sub, admin)
	second := env.createPost(t, sub, admin)

	svc := NewSiteService(env.site, env.posts, env.res)
	return env, svc, first, second
}

func TestAnnouncementLifecycle(t *testing.T) {
	t.Parallel()

	env, svc, first, second := newSiteFixture(t)
	ctx := context.Background()

	// Empty slot reads as nil, not an error.
	ann, err := svc.GetAnnouncement(ctx)
	require.NoError(t, err)
	assert.Nil(t, ann)

	require.NoError(t, svc.SetAnnouncement(ctx, first.PID))

	ann, err = svc.GetAnnouncement(ctx)
	require.NoError(t, err)
	require.NotNil(t, ann)
	assert.Equal(t, first.PID, ann.PID)

	flag, err := env.res.PostAnnouncement(ctx, first)
	require.NoError(t, err)
	assert.True(t, flag)

	// Repointing the slot evicts the outgoing post's memoized flag.
	require.NoError(t, svc.SetAnnouncement(ctx, second.PID))

	flag, err = env.res.PostAnnouncement(ctx, first)
	require.NoError(t, err)
	assert.False(t, flag)

	flag, err = env.res.PostAnnouncement(ctx, second)
	require.NoError(t, err)
	assert.True(t, flag)

	require.NoError(t, svc.ClearAnnouncement(ctx))
	ann, err = svc.GetAnnouncement(ctx)
	require.NoError(t, err)
	assert.Nil(t, ann)

	var logCount int64
	require.NoError(t, env.db.Model(&models.SiteLog{}).
		Where("action = ?", models.SiteLogAnnounce).Count(&logCount).Error)
	assert.EqualValues(t, 3, logCount)
}

func TestSetAnnouncement_MissingPost(t *testing.T) {
	t.Parallel()

	_, svc, _, _ := newSiteFixture(t)
	err := svc.SetAnnouncement(context.Background(), 9999)
	assertCode(t, err, "NOT_FOUND")
}

func TestChat(t *testing.T) {
	t.Parallel()

	_, svc, _, _ := newSiteFixture(t)
	ctx := context.Background()

	_, err := svc.PostChatMessage(ctx, "alice", "")
	assertCode(t, err, "VALIDATION_ERROR")

	_, err = svc.PostChatMessage(ctx, "alice", strings.Repeat("x", 256))
	assertCode(t, err, "VALIDATION_ERROR")

	for _, line := range []string{"one", "two", "three"} {
		_, err := svc.PostChatMessage(ctx, "alice", line)
		require.NoError(t, err)
	}

	history, err := svc.ChatHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest N lines, returned oldest first.
	assert.Equal(t, "two", history[0].Message)
	assert.Equal(t, "three", history[1].Message)

	// Out-of-range limits clamp to the default.
	history, err = svc.ChatHistory(ctx, -5)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}
