package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/metrics"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Metrics tracks realtime channel statistics
type Metrics struct {
	TotalConnections  atomic.Int64
	ActiveConnections atomic.Int64
	EventsReceived    atomic.Int64
	EventsSent        atomic.Int64
	Errors            atomic.Int64
	DroppedSessions   atomic.Int64
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
	EventsReceived    int64 `json:"events_received"`
	EventsSent        int64 `json:"events_sent"`
	Errors            int64 `json:"errors"`
	DroppedSessions   int64 `json:"dropped_sessions"`
}

// String implements Stringer for MetricsSnapshot
func (m MetricsSnapshot) String() string {
	return fmt.Sprintf(
		"connections=%d/%d events=rx:%d/tx:%d errors=%d dropped=%d",
		m.ActiveConnections, m.TotalConnections,
		m.EventsReceived, m.EventsSent,
		m.Errors, m.DroppedSessions,
	)
}

// RateLimitConfig defines per-session rate limiting parameters
type RateLimitConfig struct {
	MaxMessagesPerSecond int
	BurstSize            int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxMessagesPerSecond: 10,
		BurstSize:            20,
	}
}

// Gateway authenticates inbound WebSocket connections, maintains the session
// registry, and fans events out to a user's live sessions. Delivery through
// the gateway is best-effort: failures are recorded, never escalated.
type Gateway struct {
	registry  *Registry
	jwtSecret []byte
	metrics   *Metrics
	rateLimit RateLimitConfig
}

// NewGateway creates a gateway bound to a session registry
func NewGateway(registry *Registry, jwtSecret []byte) *Gateway {
	return &Gateway{
		registry:  registry,
		jwtSecret: jwtSecret,
		metrics:   &Metrics{},
		rateLimit: DefaultRateLimitConfig(),
	}
}

// Registry returns the gateway's session registry
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// HandleWebSocket handles WebSocket upgrade requests
// Authentication is done via JWT token in query param: ?token=...
// Or via Authorization header: Bearer <token>
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	userID, err := g.authenticateRequest(c)
	if err != nil {
		logger.Log.Warn("WebSocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// In production, set specific origins
		InsecureSkipVerify: true,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		RemoteAddr:  c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
		conn:        conn,
		gateway:     g,
		send:        make(chan []byte, sendBufferSize),
		rateLimiter: NewRateLimiter(g.rateLimit.MaxMessagesPerSecond, g.rateLimit.BurstSize),
		ctx:         ctx,
		cancel:      cancel,
		state:       StateAuthenticating,
	}

	g.register(session)

	_ = session.Send(NewEvent(EventSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to Chirp!",
		Data: map[string]interface{}{
			"user_id":     userID,
			"session_id":  session.ID,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go session.WritePump()
	session.ReadPump() // Blocks until the session disconnects
}

// authenticateRequest extracts and validates the JWT token from the request
func (g *Gateway) authenticateRequest(c *gin.Context) (string, error) {
	tokenString := ""

	// First check the dedicated auth query parameter
	if token := c.Query("token"); token != "" {
		tokenString = token
	}

	// Then check Authorization header
	if auth := c.GetHeader("Authorization"); auth != "" {
		// Support "Bearer <token>" format
		if strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		} else {
			tokenString = auth
		}
	}

	if tokenString == "" {
		return "", errors.New("no authentication token provided")
	}

	return g.verifyToken(tokenString)
}

// verifyToken validates a signed token and returns the subject user id
func (g *Gateway) verifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", errors.New("token missing expiration")
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return "", errors.New("token expired")
	}

	// Subject claim carries the user id; older tokens used user_id
	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return "", errors.New("token has no subject")
	}

	return userID, nil
}

// register transitions a session to Active and adds it to the registry
func (g *Gateway) register(s *Session) {
	s.setState(StateActive)
	g.registry.Add(s)

	g.metrics.TotalConnections.Add(1)
	g.metrics.ActiveConnections.Add(1)
	metrics.RealtimeSessionsActive.Inc()

	logger.Log.Info("Session connected",
		logger.WithUserID(s.UserID),
		logger.WithSessionID(s.ID),
		zap.Int64("active", g.metrics.ActiveConnections.Load()))
}

// disconnect removes a session from the registry and closes it. Tolerates
// being called from any state, including after a failed handshake.
func (g *Gateway) disconnect(s *Session) {
	if g.registry.Remove(s.ID) {
		g.metrics.ActiveConnections.Add(-1)
		metrics.RealtimeSessionsActive.Dec()
	}
	s.Close()

	logger.Log.Info("Session disconnected",
		logger.WithUserID(s.UserID),
		logger.WithSessionID(s.ID),
		zap.Int64("active", g.metrics.ActiveConnections.Load()))
}

// SendToUser delivers an event to every live session of a user. Having no
// live sessions is an expected outcome, not a failure. A single session's
// send failure is recorded and does not stop delivery to the others.
func (g *Gateway) SendToUser(userID string, event *Event) error {
	sessions := g.registry.Sessions(userID)
	if len(sessions) == 0 {
		logger.Log.Debug("No active sessions for user", logger.WithUserID(userID))
		return nil
	}

	for _, s := range sessions {
		if err := s.Send(event); err != nil {
			g.metrics.DroppedSessions.Add(1)
			metrics.RealtimeDeliveriesTotal.WithLabelValues("dropped").Inc()
			logger.Log.Warn("Failed to deliver event to session",
				logger.WithUserID(userID),
				logger.WithSessionID(s.ID),
				zap.Error(err))
			continue
		}
		g.metrics.EventsSent.Add(1)
		metrics.RealtimeDeliveriesTotal.WithLabelValues("ok").Inc()
	}
	return nil
}

// Broadcast delivers an event to every live session of every user; used for
// system-wide announcements.
func (g *Gateway) Broadcast(event *Event) {
	for _, s := range g.registry.All() {
		if err := s.Send(event); err != nil {
			g.metrics.DroppedSessions.Add(1)
			continue
		}
		g.metrics.EventsSent.Add(1)
	}
}

// GetMetrics returns current realtime metrics
func (g *Gateway) GetMetrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalConnections:  g.metrics.TotalConnections.Load(),
		ActiveConnections: g.metrics.ActiveConnections.Load(),
		EventsReceived:    g.metrics.EventsReceived.Load(),
		EventsSent:        g.metrics.EventsSent.Load(),
		Errors:            g.metrics.Errors.Load(),
		DroppedSessions:   g.metrics.DroppedSessions.Load(),
	}
}

// HandleMetrics returns realtime channel metrics (for monitoring)
func (g *Gateway) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"realtime":     g.GetMetrics(),
		"online_users": g.registry.OnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// HandleOnlineStatus checks if specific users are online
func (g *Gateway) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	statuses := make(map[string]bool)
	for _, userID := range req.UserIDs {
		statuses[userID] = g.registry.IsUserOnline(userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses":  statuses,
		"timestamp": time.Now().UTC(),
	})
}

// Shutdown notifies and closes all live sessions
func (g *Gateway) Shutdown(ctx context.Context) error {
	shutdown := NewEvent(EventSystem, SystemPayload{Event: "server_shutdown"})

	closed := 0
	for _, s := range g.registry.All() {
		_ = s.Send(shutdown)
		if g.registry.Remove(s.ID) {
			g.metrics.ActiveConnections.Add(-1)
			closed++
		}
		s.Close()
	}

	logger.Log.Info("Realtime gateway shut down", zap.Int("closed", closed))
	return nil
}
