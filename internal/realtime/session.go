package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write an event to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB

	// Send buffer size
	sendBufferSize = 256
)

// SessionState tracks where a connection is in its lifecycle
type SessionState int32

const (
	// StateAuthenticating: accepted at transport level, identity being verified
	StateAuthenticating SessionState = iota
	// StateActive: verified and registered; may receive sends
	StateActive
	// StateClosed: terminal
	StateClosed
)

// Session represents one live WebSocket connection of a user
type Session struct {
	// Connection identifier, assigned on accept
	ID string

	// Owning user, set once authentication succeeds
	UserID string

	ConnectedAt time.Time
	RemoteAddr  string
	UserAgent   string

	conn    *websocket.Conn
	gateway *Gateway

	// Buffered channel of outbound events
	send chan []byte

	rateLimiter *RateLimiter

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	state  SessionState
	closed bool
}

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	tokens    float64
	maxTokens float64
	refill    float64
	lastTime  time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		refill:    float64(maxPerSecond),
		lastTime:  time.Now(),
	}
}

// Allow checks if an action is allowed and consumes a token
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastTime).Seconds()
	r.lastTime = now

	r.tokens += elapsed * r.refill
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// ReadPump pumps messages from the WebSocket connection until disconnect.
// Blocks; the caller owns the connection's lifetime through it.
func (s *Session) ReadPump() {
	defer func() {
		s.gateway.disconnect(s)
	}()

	s.conn.SetReadLimit(maxMessageSize)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		readCtx, readCancel := context.WithTimeout(s.ctx, pongWait)
		_, data, err := s.conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				logger.Log.Info("Session disconnected normally", logger.WithUserID(s.UserID))
			} else if s.ctx.Err() == nil {
				// Only log errors if we're not shutting down
				logger.Log.Warn("Session read error",
					logger.WithUserID(s.UserID),
					logger.WithSessionID(s.ID),
					zap.Error(err))
				s.gateway.metrics.Errors.Add(1)
			}
			return
		}

		if !s.rateLimiter.Allow() {
			s.SendError("rate_limited", "Too many messages, please slow down")
			s.gateway.metrics.Errors.Add(1)
			continue
		}

		s.gateway.metrics.EventsReceived.Add(1)

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			logger.Log.Warn("Session JSON parse error",
				logger.WithUserID(s.UserID),
				zap.Error(err))
			s.SendError("invalid_json", "Failed to parse event")
			continue
		}

		s.handleEvent(&event)
	}
}

// WritePump pumps events from the send buffer to the WebSocket connection
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			s.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case data, ok := <-s.send:
			if !ok {
				s.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			ctx, cancel := context.WithTimeout(s.ctx, writeWait)
			err := s.conn.Write(ctx, websocket.MessageText, data)
			cancel()

			if err != nil {
				logger.Log.Warn("Session write error",
					logger.WithUserID(s.UserID),
					logger.WithSessionID(s.ID),
					zap.Error(err))
				s.gateway.metrics.Errors.Add(1)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, writeWait)
			err := s.conn.Ping(ctx)
			cancel()

			if err != nil {
				logger.Log.Warn("Ping failed for session",
					logger.WithUserID(s.UserID),
					zap.Error(err))
				return
			}
		}
	}
}

// handleEvent routes incoming client events. The realtime channel is mostly
// server-to-client; only ping is meaningful from the peer.
func (s *Session) handleEvent(event *Event) {
	switch event.Type {
	case EventPing, "heartbeat": // "heartbeat" is an alias for ping
		var ping PingPayload
		if err := event.ParsePayload(&ping); err != nil {
			ping.ClientTime = 0
		}

		serverTime := time.Now().UnixMilli()
		// Best-effort pong response - connection may be closing
		_ = s.Send(NewEvent(EventPong, PongPayload{
			ClientTime: ping.ClientTime,
			ServerTime: serverTime,
			Latency:    serverTime - ping.ClientTime,
		}))

	default:
		logger.Log.Warn("Unknown event type",
			logger.WithUserID(s.UserID),
			zap.String("type", event.Type))
		s.SendError("unknown_type", fmt.Sprintf("Unknown event type: %s", event.Type))
	}
}

// Send queues an event for delivery to this session
func (s *Session) Send(event *Event) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("session closed")
	}
	s.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case s.send <- data:
		return nil
	case <-s.ctx.Done():
		return fmt.Errorf("session shutting down")
	default:
		return fmt.Errorf("send buffer full")
	}
}

// SendError sends an error event to the client
func (s *Session) SendError(code, message string) {
	_ = s.Send(NewErrorEvent(code, message))
}

// Close closes the session's connection. Safe to call from any state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.state = StateClosed

	s.cancel()
	s.conn.Close(websocket.StatusNormalClosure, "closing")
}

// IsClosed returns whether the session is closed
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
