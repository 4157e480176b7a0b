package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = logger.Initialize("error", "")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestSession builds an Active session that is registered like a real one
// but backed only by its send buffer; fan-out tests read from that buffer.
func newTestSession(g *Gateway, userID string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		gateway:     g,
		send:        make(chan []byte, sendBufferSize),
		rateLimiter: NewRateLimiter(10, 20),
		ctx:         ctx,
		cancel:      cancel,
		state:       StateActive,
	}
}

func signedToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	s := newTestSession(g, "u1")
	r.Add(s)

	assert.True(t, r.IsUserOnline("u1"))
	assert.Equal(t, 1, r.SessionCount("u1"))

	// Removing the only session removes the user entry entirely
	assert.True(t, r.Remove(s.ID))
	assert.False(t, r.IsUserOnline("u1"))
	assert.Empty(t, r.OnlineUsers())

	// Removing again is a no-op
	assert.False(t, r.Remove(s.ID))
}

func TestSessionStateOnRegister(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	s := newTestSession(g, "u1")
	s.state = StateAuthenticating
	assert.Equal(t, StateAuthenticating, s.State())

	// register promotes the session and makes it visible to fan-out
	g.register(s)
	assert.Equal(t, StateActive, s.State())
	assert.True(t, r.IsUserOnline("u1"))
}

func TestRegistryAddIdempotent(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	s := newTestSession(g, "u1")
	r.Add(s)
	r.Add(s)

	assert.Equal(t, 1, r.SessionCount("u1"))
}

func TestRegistryMultipleSessions(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	s1 := newTestSession(g, "u1")
	s2 := newTestSession(g, "u1")
	r.Add(s1)
	r.Add(s2)

	assert.Equal(t, 2, r.SessionCount("u1"))

	// Removing one leaves exactly the other registered
	r.Remove(s1.ID)
	sessions := r.Sessions("u1")
	require.Len(t, sessions, 1)
	assert.Equal(t, s2.ID, sessions[0].ID)
}

func TestRegistrySessionsSnapshot(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	s := newTestSession(g, "u1")
	r.Add(s)

	snapshot := r.Sessions("u1")
	r.Remove(s.ID)

	// Snapshot is a copy, unaffected by later mutation
	assert.Len(t, snapshot, 1)
	assert.Nil(t, r.Sessions("u1"))
}

func TestSendToUserNoSessions(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	// Expected non-error outcome, no emits recorded
	err := g.SendToUser("nobody", NewEvent(EventNotification, nil))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), g.GetMetrics().EventsSent)
}

func TestSendToUserFanOut(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	s1 := newTestSession(g, "u1")
	s2 := newTestSession(g, "u1")
	other := newTestSession(g, "u2")
	r.Add(s1)
	r.Add(s2)
	r.Add(other)

	err := g.SendToUser("u1", NewEvent(EventNotification, NotificationPayload{
		Type:    "like",
		Message: "liked",
	}))
	require.NoError(t, err)

	// Exactly one emit per session of u1, zero to u2
	assert.Len(t, s1.send, 1)
	assert.Len(t, s2.send, 1)
	assert.Len(t, other.send, 0)
	assert.Equal(t, int64(2), g.GetMetrics().EventsSent)
}

func TestSendToUserPartialFailure(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	broken := newTestSession(g, "u1")
	broken.closed = true // simulate a session torn down mid-send
	healthy := newTestSession(g, "u1")
	r.Add(broken)
	r.Add(healthy)

	err := g.SendToUser("u1", NewEvent(EventNotification, nil))
	require.NoError(t, err)

	// The healthy session still received its copy
	assert.Len(t, healthy.send, 1)
	assert.Equal(t, int64(1), g.GetMetrics().DroppedSessions)
}

func TestBroadcast(t *testing.T) {
	r := NewRegistry()
	g := NewGateway(r, []byte("secret"))

	s1 := newTestSession(g, "u1")
	s2 := newTestSession(g, "u2")
	r.Add(s1)
	r.Add(s2)

	g.Broadcast(NewEvent(EventSystem, SystemPayload{Event: "announcement"}))

	assert.Len(t, s1.send, 1)
	assert.Len(t, s2.send, 1)
}

func TestNotificationEventShape(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := NotificationEvent(&models.Notification{
		ID:        "n-1",
		UserID:    "u1",
		Type:      "comment",
		Message:   "Alice commented on your post.",
		Meta:      models.Metadata{"postId": "p-1"},
		CreatedAt: created,
	})

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded struct {
		Type    string `json:"type"`
		Payload struct {
			ID        string                 `json:"id"`
			Type      string                 `json:"type"`
			Message   string                 `json:"message"`
			Meta      map[string]interface{} `json:"meta"`
			IsRead    bool                   `json:"isRead"`
			CreatedAt time.Time              `json:"createdAt"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EventNotification, decoded.Type)
	assert.Equal(t, "n-1", decoded.Payload.ID)
	assert.Equal(t, "comment", decoded.Payload.Type)
	assert.False(t, decoded.Payload.IsRead)
	assert.Equal(t, "p-1", decoded.Payload.Meta["postId"])
	assert.True(t, created.Equal(decoded.Payload.CreatedAt))
}

func authContext(t *testing.T, target string, header http.Header) *gin.Context {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	c.Request = req
	return c
}

func TestAuthenticateRequestNoToken(t *testing.T) {
	g := NewGateway(NewRegistry(), []byte("secret"))

	_, err := g.authenticateRequest(authContext(t, "/ws", nil))
	assert.Error(t, err)
}

func TestAuthenticateRequestQueryToken(t *testing.T) {
	secret := []byte("secret")
	g := NewGateway(NewRegistry(), secret)

	token := signedToken(t, secret, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	userID, err := g.authenticateRequest(authContext(t, "/ws?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestAuthenticateRequestBearerHeader(t *testing.T) {
	secret := []byte("secret")
	g := NewGateway(NewRegistry(), secret)

	token := signedToken(t, secret, jwt.MapClaims{
		"user_id": "u2",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	userID, err := g.authenticateRequest(authContext(t, "/ws", header))
	require.NoError(t, err)
	assert.Equal(t, "u2", userID)
}

func TestVerifyTokenRejectsBadSignature(t *testing.T) {
	g := NewGateway(NewRegistry(), []byte("right-secret"))

	token := signedToken(t, []byte("wrong-secret"), jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := g.verifyToken(token)
	assert.Error(t, err)
	// A rejected handshake never touches the registry
	assert.Empty(t, g.registry.OnlineUsers())
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	secret := []byte("secret")
	g := NewGateway(NewRegistry(), secret)

	token := signedToken(t, secret, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := g.verifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsMissingSubject(t *testing.T) {
	secret := []byte("secret")
	g := NewGateway(NewRegistry(), secret)

	token := signedToken(t, secret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := g.verifyToken(token)
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	// Allow 5 per second with burst of 10
	rl := NewRateLimiter(5, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(), "Request %d should be allowed", i+1)
	}

	assert.False(t, rl.Allow(), "Request 11 should be denied")

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.Allow(), "Request after wait should be allowed")
}

func TestFlexibleTimeUnmarshal(t *testing.T) {
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte("1234567890000"), &ft))
	assert.Equal(t, int64(1234567890000), ft.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`"2026-03-01T12:00:00Z"`), &ft))
	assert.Equal(t, 2026, ft.Year())

	assert.Error(t, json.Unmarshal([]byte(`{"bad":"shape"}`), &ft))
}
