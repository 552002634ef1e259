package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"phora/internal/config"
	"phora/internal/database"
	"phora/internal/middleware"
	"phora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The Prometheus middleware registers collectors in the default
// registry, so the test app is built once and shared by every test.
var (
	setupOnce sync.Once
	testSrv   *Server
	testApp   *fiber.App
	testDB    *gorm.DB
)

func testServer(t *testing.T) (*fiber.App, *Server) {
	t.Helper()

	setupOnce.Do(func() {
		os.Setenv("APP_ENV", "test")

		cfg := &config.Config{
			JWTSecret:      "server-test-secret-thats-long-enough",
			Port:           "0",
			Env:            "test",
			CacheLocalSize: 256,
			CacheTimeoutMS: 250,
			DBTimeoutMS:    5000,
		}
		middleware.InitMiddleware(cfg)

		db, err := gorm.Open(sqlite.Open("file:servertest?mode=memory&cache=shared"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err != nil {
			panic(err)
		}
		if err := db.AutoMigrate(database.Models()...); err != nil {
			panic(err)
		}
		testDB = db

		srv, err := NewServerWithDeps(cfg, db, nil)
		if err != nil {
			panic(err)
		}
		testSrv = srv

		app := fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
			},
		})
		srv.SetupMiddleware(app)
		srv.SetupRoutes(app)
		testApp = app
	})
	return testApp, testSrv
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 {
		// Some endpoints return arrays or empty bodies; those callers
		// only look at the status code.
		_ = json.Unmarshal(raw, &parsed)
	}
	return resp.StatusCode, parsed
}

// registerUser creates an account through the API and returns its token
// and uid.
func registerUser(t *testing.T, app *fiber.App, name string) (string, string) {
	t.Helper()

	status, body := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"username": name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status, "register %s: %v", name, body)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user, _ := body["user"].(map[string]interface{})
	uid, _ := user["uid"].(string)
	require.NotEmpty(t, uid)
	return token, uid
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := testServer(t)

	status, body := doJSON(t, app, "GET", "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, _ = doJSON(t, app, "GET", "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAuthFlow(t *testing.T) {
	app, _ := testServer(t)

	token, _ := registerUser(t, app, "authflow")

	t.Run("login with valid credentials", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
			"username": "authflow", "password": "password123",
		})
		assert.Equal(t, fiber.StatusOK, status)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("login with wrong password", func(t *testing.T) {
		status, _ := doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
			"username": "authflow", "password": "wrong-password",
		})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		status, _ := doJSON(t, app, "POST", "/api/auth/register", "", fiber.Map{
			"username": "authflow", "password": "password123",
		})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("protected route needs a token", func(t *testing.T) {
		status, _ := doJSON(t, app, "GET", "/api/me/", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)

		status, _ = doJSON(t, app, "GET", "/api/me/", token, nil)
		assert.Equal(t, fiber.StatusOK, status)
	})
}

func TestSubAndPostFlow(t *testing.T) {
	app, _ := testServer(t)

	founderToken, _ := registerUser(t, app, "subfounder")

	status, body := doJSON(t, app, "POST", "/api/subs/", founderToken, fiber.Map{
		"name": "testsub", "title": "A sub for testing",
	})
	require.Equal(t, fiber.StatusCreated, status, "%v", body)

	t.Run("sub is publicly visible", func(t *testing.T) {
		status, body := doJSON(t, app, "GET", "/api/subs/testsub", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "testsub", body["name"])
		assert.Equal(t, false, body["is_nsfw"])
	})

	t.Run("unknown sub is 404", func(t *testing.T) {
		status, _ := doJSON(t, app, "GET", "/api/subs/nope", "", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	var pid float64
	t.Run("create and fetch a post", func(t *testing.T) {
		status, body := doJSON(t, app, "POST", "/api/posts/", founderToken, fiber.Map{
			"sub": "testsub", "ptype": 0, "title": "hello", "content": "world",
		})
		require.Equal(t, fiber.StatusCreated, status, "%v", body)
		pid = body["pid"].(float64)

		status, view := doJSON(t, app, "GET", fmt.Sprintf("/api/posts/%.0f", pid), "", nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "hello", view["title"])
		assert.EqualValues(t, 1, view["score_value"])
	})

	t.Run("post shows up in sub listing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/subs/testsub/posts", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var posts []map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
		require.NotEmpty(t, posts)
		assert.Equal(t, "hello", posts[0]["title"])
	})

	t.Run("voting", func(t *testing.T) {
		voterToken, _ := registerUser(t, app, "subvoter")
		path := fmt.Sprintf("/api/posts/%.0f/vote", pid)

		status, body := doJSON(t, app, "POST", path, voterToken, fiber.Map{"positive": true})
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, body["score"])

		// Same direction again is a no-op that still reports the score.
		status, body = doJSON(t, app, "POST", path, voterToken, fiber.Map{"positive": true})
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, body["score"])

		// Authors cannot vote their own post.
		status, _ = doJSON(t, app, "POST", path, founderToken, fiber.Map{"positive": true})
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("comments", func(t *testing.T) {
		commenterToken, _ := registerUser(t, app, "subcommenter")
		path := fmt.Sprintf("/api/posts/%.0f/comments", pid)

		status, comment := doJSON(t, app, "POST", path, commenterToken, fiber.Map{
			"content": "nice post",
		})
		require.Equal(t, fiber.StatusCreated, status)
		cid, _ := comment["cid"].(string)
		require.NotEmpty(t, cid)

		status, reply := doJSON(t, app, "POST", path, commenterToken, fiber.Map{
			"content": "replying to myself", "parent_cid": cid,
		})
		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, cid, reply["parent_cid"])

		req := httptest.NewRequest("GET", path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var tree []map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&tree))
		require.Len(t, tree, 1)
		children, _ := tree[0]["children"].([]interface{})
		assert.Len(t, children, 1)
	})

	t.Run("missing post is 404", func(t *testing.T) {
		status, _ := doJSON(t, app, "GET", "/api/posts/999999", "", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

func TestMessagingFlow(t *testing.T) {
	app, _ := testServer(t)

	aliceToken, _ := registerUser(t, app, "msgalice")
	bobToken, _ := registerUser(t, app, "msgbob")

	status, sent := doJSON(t, app, "POST", "/api/messages/", aliceToken, fiber.Map{
		"to": "msgbob", "subject": "hi", "content": "hello bob",
	})
	require.Equal(t, fiber.StatusCreated, status, "%v", sent)
	mid := sent["mid"].(float64)

	status, count := doJSON(t, app, "GET", "/api/messages/unread-count", bobToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, count["unread"])

	status, msg := doJSON(t, app, "GET", fmt.Sprintf("/api/messages/%.0f", mid), bobToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "hello bob", msg["content"])

	status, count = doJSON(t, app, "GET", "/api/messages/unread-count", bobToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, count["unread"], "reading clears the marker")

	t.Run("strangers cannot read the thread", func(t *testing.T) {
		carolToken, _ := registerUser(t, app, "msgcarol")
		status, _ := doJSON(t, app, "GET", fmt.Sprintf("/api/messages/%.0f", mid), carolToken, nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	})
}

func TestAdminEndpoints(t *testing.T) {
	app, _ := testServer(t)

	userToken, _ := registerUser(t, app, "plainuser")
	adminToken, adminUID := registerUser(t, app, "siteadmin")

	// Promote via the metadata table, the way ops does it.
	require.NoError(t, testDB.Create(&models.UserMetadata{
		UID: adminUID, Key: "admin", Value: "1",
	}).Error)

	t.Run("non-admin is rejected", func(t *testing.T) {
		status, _ := doJSON(t, app, "GET", "/api/admin/sitelog", userToken, nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	})

	t.Run("admin sets the announcement", func(t *testing.T) {
		_, body := doJSON(t, app, "POST", "/api/subs/", adminToken, fiber.Map{
			"name": "adminsub", "title": "t",
		})
		require.NotNil(t, body)

		status, post := doJSON(t, app, "POST", "/api/posts/", adminToken, fiber.Map{
			"sub": "adminsub", "ptype": 0, "title": "big news", "content": "read this",
		})
		require.Equal(t, fiber.StatusCreated, status)
		pid := post["pid"].(float64)

		status, _ = doJSON(t, app, "PUT", "/api/admin/announcement", adminToken, fiber.Map{"pid": pid})
		require.Equal(t, fiber.StatusNoContent, status)

		status, ann := doJSON(t, app, "GET", "/api/posts/announcement", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "big news", ann["title"])

		status, _ = doJSON(t, app, "DELETE", "/api/admin/announcement", adminToken, nil)
		require.Equal(t, fiber.StatusNoContent, status)

		status, _ = doJSON(t, app, "GET", "/api/posts/announcement", "", nil)
		assert.Equal(t, fiber.StatusNoContent, status)
	})

	t.Run("admin bans a user", func(t *testing.T) {
		_, targetUID := registerUser(t, app, "bantarget")

		status, _ := doJSON(t, app, "PUT", "/api/admin/users/"+targetUID+"/status", adminToken,
			fiber.Map{"status": models.UserStatusBanned})
		require.Equal(t, fiber.StatusNoContent, status)

		// Banned accounts cannot log in anymore.
		status, _ = doJSON(t, app, "POST", "/api/auth/login", "", fiber.Map{
			"username": "bantarget", "password": "password123",
		})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}
