// Package backend provides the Chirp API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/realtime: WebSocket gateway for real-time notifications
// - internal/notifications: Notification creation and fan-out
// - internal/push: Web push subscriptions and delivery
// - internal/repository: Database access for users, posts, and follows
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/cache: Redis client and trending hashtags
// - internal/middleware: HTTP middleware (rate limiting, etc.)

// See the individual package documentation for detailed API reference.
package backend
