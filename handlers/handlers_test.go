package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"socialgraph/config"
	"socialgraph/database"
	"socialgraph/handlers"
	"socialgraph/middleware"
	"socialgraph/social"
	"socialgraph/utils"
)

type inbox struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]string
	online   map[uuid.UUID]bool
}

func (i *inbox) Send(userID uuid.UUID, message string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages[userID] = append(i.messages[userID], message)
}

func (i *inbox) IsOnline(userID uuid.UUID) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.online[userID]
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
	inbox  *inbox
}

func setup(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateTables(t.Context()))

	cfg := config.Default()
	box := &inbox{messages: make(map[uuid.UUID][]string), online: make(map[uuid.UUID]bool)}
	svc := social.NewService(cfg.Social, cfg.Messages,
		database.NewFriendshipRepository(db), database.NewBlacklistRepository(db),
		box, box, zap.NewNop())

	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	h := handlers.New(database.NewUserRepository(db), database.NewDeviceTokenRepository(db), svc, box, tokens, zap.NewNop())

	r := gin.New()
	h.RegisterRoutes(r, middleware.AuthMiddleware(tokens))
	return &api{t: t, router: r, inbox: box}
}

func (a *api) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

type account struct {
	id    uuid.UUID
	token string
}

func (a *api) register(username string) account {
	a.t.Helper()

	code, env := a.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": username, "password": "hunter22"})
	require.Equal(a.t, http.StatusOK, code, env.Error)

	var resp handlers.AuthResponse
	require.NoError(a.t, json.Unmarshal(env.Data, &resp))
	return account{id: resp.User.ID, token: resp.Token}
}

func TestAuth(t *testing.T) {
	a := setup(t)
	alice := a.register("Alice")

	code, _ := a.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "hunter22"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "x", "password": "hunter22"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "hunter22"})
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, _ = a.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "Alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "nobody", "password": "hunter22"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = a.do(http.MethodPost, "/api/auth/refresh", alice.token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "token")

	code, _ = a.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUsers(t *testing.T) {
	a := setup(t)
	alice := a.register("Alice")
	a.register("Alicia")
	a.register("Bob")

	code, env := a.do(http.MethodGet, "/api/users/me", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"username":"Alice"`)

	code, env = a.do(http.MethodGet, "/api/users/search?q=ali", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	var found []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Alicia", found[0]["username"])

	code, _ = a.do(http.MethodGet, "/api/users/search", alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, "/api/users/me/device", alice.token, gin.H{"platform": "android", "token": "t"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodPost, "/api/users/me/device", alice.token, gin.H{"platform": "symbian", "token": "t"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodDelete, "/api/users/me/device", alice.token, gin.H{"platform": "android"})
	assert.Equal(t, http.StatusOK, code)
}

func TestFriendFlow(t *testing.T) {
	a := setup(t)
	alice := a.register("Alice")
	bob := a.register("Bob")

	code, _ := a.do(http.MethodPost, "/api/friends/request", alice.token, gin.H{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env := a.do(http.MethodPost, "/api/friends/request", alice.token, gin.H{"username": "bob"})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = a.do(http.MethodPost, "/api/friends/request", alice.token, gin.H{"username": "bob"})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	code, env = a.do(http.MethodGet, "/api/friends/requests", bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"sender_name":"Alice"`)

	code, _ = a.do(http.MethodPost, "/api/friends/accept/alice", bob.token, nil)
	require.Equal(t, http.StatusOK, code)

	a.inbox.online[bob.id] = true
	code, env = a.do(http.MethodGet, "/api/friends", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	var friends []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, "Bob", friends[0]["target_name"])
	assert.Equal(t, true, friends[0]["online"])

	code, _ = a.do(http.MethodPost, "/api/friends/Bob/favorite", alice.token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodPut, "/api/friends/Bob/nickname", alice.token, gin.H{"nickname": "Bobby"})
	assert.Equal(t, http.StatusOK, code)

	code, env = a.do(http.MethodGet, "/api/friends", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"display_name":"Bobby"`)
	assert.Contains(t, string(env.Data), `"favorite":true`)

	code, _ = a.do(http.MethodPost, "/api/friends/Bob/messages", alice.token, gin.H{"content": "hi bob"})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, a.inbox.messages[bob.id][len(a.inbox.messages[bob.id])-1], "hi bob")

	code, _ = a.do(http.MethodPost, "/api/friends/Bob/teleport", alice.token, nil)
	assert.Equal(t, http.StatusConflict, code, "no teleporter is configured")

	code, _ = a.do(http.MethodDelete, "/api/friends/bob", alice.token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodDelete, "/api/friends/bob", alice.token, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestDenyRequest(t *testing.T) {
	a := setup(t)
	alice := a.register("Alice")
	bob := a.register("Bob")

	code, _ := a.do(http.MethodPost, "/api/friends/request", alice.token, gin.H{"username": "Bob"})
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodPost, "/api/friends/deny/Alice", bob.token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodPost, "/api/friends/accept/Alice", bob.token, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestBlacklistFlow(t *testing.T) {
	a := setup(t)
	alice := a.register("Alice")
	bob := a.register("Bob")

	code, _ := a.do(http.MethodPost, "/api/blacklist", alice.token, gin.H{"username": "Bob", "reason": "spam"})
	require.Equal(t, http.StatusOK, code)

	code, env := a.do(http.MethodGet, "/api/blacklist", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"reason":"spam"`)

	code, _ = a.do(http.MethodPost, "/api/friends/request", bob.token, gin.H{"username": "Alice"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(http.MethodDelete, "/api/blacklist/bob", alice.token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodDelete, "/api/blacklist/bob", alice.token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = a.do(http.MethodGet, "/api/blacklist", alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}
