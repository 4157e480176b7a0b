package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/repository"
)

const maxPostLength = 500

// createPostRequest is the JSON body for creating a post
type createPostRequest struct {
	Content  string `json:"content" binding:"required"`
	MediaURL string `json:"media_url"`
}

// CreatePost creates a new post, extracting hashtags and notifying mentions
// POST /api/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if len(req.Content) > maxPostLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_too_long", "max_length": maxPostLength})
		return
	}

	hashtags := extractHashtags(req.Content)
	post := &models.Post{
		AuthorID: user.ID,
		Content:  req.Content,
		Hashtags: hashtags,
		MediaURL: req.MediaURL,
	}

	if err := h.posts.CreatePost(c.Request.Context(), post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_create_post", "message": err.Error()})
		return
	}
	post.Author = *user

	if h.redis != nil && len(hashtags) > 0 {
		if err := h.redis.RecordHashtags(c.Request.Context(), hashtags); err != nil {
			logger.Log.Warn("Failed to record trending hashtags", zap.Error(err))
		}
	}

	h.notifyMentions(c, user, post.ID, req.Content)

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// notifyMentions creates a mention notification for each @username in
// content that resolves to a real user other than the author
func (h *Handlers) notifyMentions(c *gin.Context, author *models.User, postID, content string) {
	for _, username := range extractMentions(content) {
		mentioned, err := h.users.GetUserByUsername(c.Request.Context(), username)
		if err != nil {
			continue
		}
		if mentioned.ID == author.ID {
			continue
		}

		_, err = h.notifications.Create(c.Request.Context(), notifications.CreateInput{
			UserID:  mentioned.ID,
			Type:    models.NotificationTypeMention,
			Message: fmt.Sprintf("@%s mentioned you in a post", author.Username),
			Meta: models.Metadata{
				"actor_id": author.ID,
				"post_id":  postID,
			},
		})
		if err != nil {
			logger.Log.Warn("Failed to create mention notification",
				zap.String("mentioned_user", mentioned.ID),
				zap.Error(err))
		}
	}
}

// GetPost gets a single post by ID
// GET /api/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_post", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost deletes the user's own post
// DELETE /api/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	err := h.posts.DeletePost(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_delete_post", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetFeed gets the user's home feed: posts from followed users plus their own
// GET /api/feed
func (h *Handlers) GetFeed(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	limit, offset := paginationParams(c)
	posts, err := h.posts.GetFeedForUser(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_feed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"meta":  gin.H{"limit": limit, "offset": offset, "count": len(posts)},
	})
}

// GetRecentPosts gets the global firehose of recent posts
// GET /api/posts/recent
func (h *Handlers) GetRecentPosts(c *gin.Context) {
	limit, offset := paginationParams(c)
	posts, err := h.posts.GetRecentPosts(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_posts", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"meta":  gin.H{"limit": limit, "offset": offset, "count": len(posts)},
	})
}

// GetPostsByHashtag gets recent posts carrying a hashtag
// GET /api/hashtags/:tag/posts
func (h *Handlers) GetPostsByHashtag(c *gin.Context) {
	tag := c.Param("tag")
	limit, offset := paginationParams(c)

	posts, err := h.posts.GetPostsByHashtag(c.Request.Context(), tag, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_posts", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hashtag": tag,
		"posts":   posts,
		"meta":    gin.H{"limit": limit, "offset": offset, "count": len(posts)},
	})
}

// GetUserPosts gets a user's posts, newest first
// GET /api/users/:id/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	limit, offset := paginationParams(c)
	posts, err := h.posts.GetPostsByAuthor(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_posts", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"meta":  gin.H{"limit": limit, "offset": offset, "count": len(posts)},
	})
}

// LikePost likes a post and notifies its author
// POST /api/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	postID := c.Param("id")
	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_like", "message": err.Error()})
		return
	}

	if err := h.posts.CreateLike(c.Request.Context(), postID, user.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			c.JSON(http.StatusConflict, gin.H{"error": "already_liked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_like", "message": err.Error()})
		return
	}

	if post.AuthorID != user.ID {
		_, err := h.notifications.Create(c.Request.Context(), notifications.CreateInput{
			UserID:  post.AuthorID,
			Type:    models.NotificationTypeLike,
			Message: fmt.Sprintf("@%s liked your post", user.Username),
			Meta: models.Metadata{
				"actor_id": user.ID,
				"post_id":  postID,
			},
		})
		if err != nil {
			logger.Log.Warn("Failed to create like notification",
				zap.String("post_id", postID),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "liked"})
}

// UnlikePost removes the user's like from a post
// DELETE /api/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	err := h.posts.DeleteLike(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotLiked) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_liked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_unlike", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unliked"})
}
