package service

import (
	"context"
	"testing"

	"phora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubFixture(t *testing.T) (*testEnv, *SubService, *models.User) {
	t.Helper()
	env := newTestEnv(t)
	founder := env.createUser(t, "founder")
	return env, NewSubService(env.subs, env.posts, env.res), founder
}

func TestCreateSub(t *testing.T) {
	t.Parallel()

	env, svc, founder := newSubFixture(t)
	ctx := context.Background()

	sub, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "golang", Title: "The Go sub"})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.SID)

	// Creation records the founder and the first mod slot.
	var md models.SubMetadata
	require.NoError(t, env.db.First(&md, "sid = ? AND key = ?", sub.SID, models.SubMetaFounder).Error)
	assert.Equal(t, founder.UID, md.Value)
	md = models.SubMetadata{}
	require.NoError(t, env.db.First(&md, "sid = ? AND key = ?", sub.SID, models.SubMetaMod).Error)
	assert.Equal(t, founder.UID, md.Value)
}

func TestCreateSub_Validation(t *testing.T) {
	t.Parallel()

	_, svc, founder := newSubFixture(t)
	ctx := context.Background()

	_, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "x", Title: "t"})
	assertCode(t, err, "VALIDATION_ERROR")

	_, err = svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "bad name", Title: "t"})
	assertCode(t, err, "VALIDATION_ERROR")

	_, err = svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "dupes", Title: "t"})
	require.NoError(t, err)
	_, err = svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "dupes", Title: "t"})
	assertCode(t, err, "VALIDATION_ERROR")
}

func TestIsMod(t *testing.T) {
	t.Parallel()

	env, svc, founder := newSubFixture(t)
	ctx := context.Background()

	sub, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "modded", Title: "t"})
	require.NoError(t, err)

	mod, err := svc.IsMod(ctx, sub.SID, founder.UID)
	require.NoError(t, err)
	assert.True(t, mod)

	outsider := env.createUser(t, "outsider")
	mod, err = svc.IsMod(ctx, sub.SID, outsider.UID)
	require.NoError(t, err)
	assert.False(t, mod)
}

func TestSetNSFW(t *testing.T) {
	t.Parallel()

	env, svc, founder := newSubFixture(t)
	ctx := context.Background()

	sub, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "spicy", Title: "t"})
	require.NoError(t, err)

	outsider := env.createUser(t, "outsider")
	err = svc.SetNSFW(ctx, sub.SID, outsider.UID, true)
	assertCode(t, err, "UNAUTHORIZED")

	require.NoError(t, svc.SetNSFW(ctx, sub.SID, founder.UID, true))

	// Both the column and the legacy metadata row are written.
	var stored models.Sub
	require.NoError(t, env.db.First(&stored, "sid = ?", sub.SID).Error)
	require.NotNil(t, stored.NSFW)
	assert.Equal(t, 1, *stored.NSFW)

	var md models.SubMetadata
	require.NoError(t, env.db.First(&md, "sid = ? AND key = ?", sub.SID, models.SubMetaNSFW).Error)
	assert.Equal(t, "1", md.Value)

	var logCount int64
	require.NoError(t, env.db.Model(&models.SubLog{}).Where("sid = ?", sub.SID).Count(&logCount).Error)
	assert.EqualValues(t, 1, logCount)
}

func TestSetSticky(t *testing.T) {
	t.Parallel()

	env, svc, founder := newSubFixture(t)
	ctx := context.Background()

	sub, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "stickies", Title: "t"})
	require.NoError(t, err)
	post := env.createPost(t, sub, founder)

	require.NoError(t, svc.SetSticky(ctx, sub.SID, founder.UID, post.PID))

	sticky, err := env.res.PostSticky(ctx, post)
	require.NoError(t, err)
	assert.True(t, sticky)

	t.Run("post from another sub rejected", func(t *testing.T) {
		other, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "elsewhere", Title: "t"})
		require.NoError(t, err)
		foreign := env.createPost(t, other, founder)
		err = svc.SetSticky(ctx, sub.SID, founder.UID, foreign.PID)
		assertCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("zero pid clears the slot", func(t *testing.T) {
		require.NoError(t, svc.SetSticky(ctx, sub.SID, founder.UID, 0))
		var md models.SubMetadata
		require.NoError(t, env.db.First(&md, "sid = ? AND key = ?", sub.SID, models.SubMetaSticky).Error)
		assert.Empty(t, md.Value)
	})
}

func TestFlairsAndStylesheet(t *testing.T) {
	t.Parallel()

	env, svc, founder := newSubFixture(t)
	ctx := context.Background()

	sub, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "styled", Title: "t"})
	require.NoError(t, err)

	require.NoError(t, svc.AddFlair(ctx, sub.SID, founder.UID, "Discussion"))
	err = svc.AddFlair(ctx, sub.SID, founder.UID, "")
	assertCode(t, err, "VALIDATION_ERROR")

	flairs, err := svc.ListFlairs(ctx, sub.SID)
	require.NoError(t, err)
	require.Len(t, flairs, 1)
	assert.Equal(t, "Discussion", flairs[0].Text)

	require.NoError(t, svc.SetStylesheet(ctx, sub.SID, founder.UID, "body { color: red }"))
	var sheet models.SubStylesheet
	require.NoError(t, env.db.First(&sheet, "sid = ?", sub.SID).Error)
	assert.Equal(t, "body { color: red }", sheet.Content)

	// Updating overwrites rather than stacking rows.
	require.NoError(t, svc.SetStylesheet(ctx, sub.SID, founder.UID, "body { color: blue }"))
	var count int64
	require.NoError(t, env.db.Model(&models.SubStylesheet{}).Where("sid = ?", sub.SID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubscriptions(t *testing.T) {
	t.Parallel()

	env, svc, founder := newSubFixture(t)
	ctx := context.Background()

	subA, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "first_sub", Title: "t"})
	require.NoError(t, err)
	subB, err := svc.CreateSub(ctx, CreateSubInput{UID: founder.UID, Name: "second_sub", Title: "t"})
	require.NoError(t, err)

	reader := env.createUser(t, "reader")
	require.NoError(t, svc.Subscribe(ctx, subA.SID, reader.UID))
	require.NoError(t, svc.Subscribe(ctx, subB.SID, reader.UID))

	subs, err := svc.ListSubscriptions(ctx, reader.UID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	// Blocking flips the existing row instead of adding one.
	require.NoError(t, svc.Block(ctx, subB.SID, reader.UID))
	subs, err = svc.ListSubscriptions(ctx, reader.UID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, subA.SID, subs[0].SID)

	var rows int64
	require.NoError(t, env.db.Model(&models.SubSubscriber{}).
		Where("uid = ?", reader.UID).Count(&rows).Error)
	assert.EqualValues(t, 2, rows)
}
