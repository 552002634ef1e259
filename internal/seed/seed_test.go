package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

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
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func TestFactory_CreateUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := NewFactory(db)

	u, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotEmpty(t, u.UID)
	assert.True(t, u.CheckPassword("password123"))
	assert.NotContains(t, u.Password, "password123", "credential must be stored hashed")

	named, err := f.CreateUser(func(u *models.User) { u.Name = "fixedname" })
	require.NoError(t, err)
	assert.Equal(t, "fixedname", named.Name)
}

func TestFactory_CreateLegacyPost(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := NewFactory(db)

	author, err := f.CreateUser()
	require.NoError(t, err)
	sub, err := f.CreateSub(author)
	require.NoError(t, err)

	post, err := f.CreateLegacyPost(author, sub)
	require.NoError(t, err)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.PID).Error)
	assert.Nil(t, stored.Score, "legacy rows carry no derived columns")
	assert.Nil(t, stored.NSFW)

	var md []models.PostMetadata
	require.NoError(t, db.Where("pid = ?", post.PID).Find(&md).Error)
	keys := make([]string, 0, len(md))
	for _, row := range md {
		keys = append(keys, row.Key)
	}
	assert.Contains(t, keys, models.PostMetaScore)
	assert.Contains(t, keys, models.PostMetaNSFW)
}

func writeFixtureFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFixtures(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		path := writeFixtureFile(t, `
users:
  - name: alice
    admin: true
  - name: bob
    password: hunter22222
subs:
  - name: golang
    title: The Go programming language
    founder: alice
`)
		f, err := LoadFixtures(path)
		require.NoError(t, err)
		require.Len(t, f.Users, 2)
		assert.True(t, f.Users[0].Admin)
		require.Len(t, f.Subs, 1)
		assert.Equal(t, "alice", f.Subs[0].Founder)
	})

	t.Run("duplicate user name", func(t *testing.T) {
		path := writeFixtureFile(t, "users:\n  - name: alice\n  - name: alice\n")
		_, err := LoadFixtures(path)
		assert.ErrorContains(t, err, "duplicate name")
	})

	t.Run("unknown founder", func(t *testing.T) {
		path := writeFixtureFile(t, "users:\n  - name: alice\nsubs:\n  - name: golang\n    founder: ghost\n")
		_, err := LoadFixtures(path)
		assert.ErrorContains(t, err, "not a fixture user")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFixtureFile(t, "users: [unclosed")
		_, err := LoadFixtures(path)
		assert.Error(t, err)
	})
}

func TestSeeder_ApplyFixtures(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	s := NewSeeder(db)

	fixtures := &Fixtures{
		Users: []FixtureUser{
			{Name: "alice", Admin: true, Password: "letmein-once"},
			{Name: "bob"},
		},
		Subs: []FixtureSub{
			{Name: "golang", Title: "Gophers", Founder: "alice"},
		},
	}

	users, subs, err := s.ApplyFixtures(fixtures)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Len(t, subs, 1)

	assert.True(t, users[0].CheckPassword("letmein-once"))
	assert.True(t, users[1].CheckPassword("password123"), "default password applies when omitted")

	var md models.UserMetadata
	require.NoError(t, db.Where("uid = ? AND key = ?", users[0].UID, "admin").First(&md).Error)
	assert.Equal(t, "1", md.Value)

	var founder models.SubMetadata
	require.NoError(t, db.Where("sid = ? AND key = ?", subs[0].SID, models.SubMetaFounder).First(&founder).Error)
	assert.Equal(t, users[0].UID, founder.Value)
}
