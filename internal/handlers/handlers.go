package handlers

import (
	"github.com/chirpsocial/backend/internal/auth"
	"github.com/chirpsocial/backend/internal/cache"
	"github.com/chirpsocial/backend/internal/config"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/push"
	"github.com/chirpsocial/backend/internal/realtime"
	"github.com/chirpsocial/backend/internal/repository"
	"github.com/chirpsocial/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth          auth.AuthServiceInterface
	users         repository.UserRepository
	posts         repository.PostRepository
	notifications *notifications.Service
	pushStore     push.SubscriptionStore
	pushAgent     *push.Agent
	gateway       *realtime.Gateway
	redis         *cache.RedisClient
	uploader      storage.Uploader
	cfg           *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	authService auth.AuthServiceInterface,
	users repository.UserRepository,
	posts repository.PostRepository,
	notificationService *notifications.Service,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		auth:          authService,
		users:         users,
		posts:         posts,
		notifications: notificationService,
		cfg:           cfg,
	}
}

// SetPushTools sets the push subscription store and delivery agent
func (h *Handlers) SetPushTools(store push.SubscriptionStore, agent *push.Agent) {
	h.pushStore = store
	h.pushAgent = agent
}

// SetGateway sets the realtime gateway for connection stats endpoints
func (h *Handlers) SetGateway(gateway *realtime.Gateway) {
	h.gateway = gateway
}

// SetRedisClient sets the Redis client for trending hashtags
func (h *Handlers) SetRedisClient(redis *cache.RedisClient) {
	h.redis = redis
}

// SetUploader sets the media storage backend
func (h *Handlers) SetUploader(uploader storage.Uploader) {
	h.uploader = uploader
}
