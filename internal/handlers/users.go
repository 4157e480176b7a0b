package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/repository"
)

// GetUser gets a user's public profile
// GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_user", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// updateProfileRequest holds the editable profile fields
type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateProfile updates the authenticated user's profile fields
// PATCH /api/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" || len(name) > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_display_name"})
			return
		}
		user.DisplayName = name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := h.users.UpdateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_update_profile", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// FollowUser follows another user and notifies them
// POST /api/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	targetID := c.Param("id")
	if targetID == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot_follow_self"})
		return
	}

	target, err := h.users.GetUser(c.Request.Context(), targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_follow", "message": err.Error()})
		return
	}

	if err := h.users.CreateFollow(c.Request.Context(), user.ID, targetID); err != nil {
		if errors.Is(err, repository.ErrAlreadyFollowing) {
			c.JSON(http.StatusConflict, gin.H{"error": "already_following"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_follow", "message": err.Error()})
		return
	}

	_, err = h.notifications.Create(c.Request.Context(), notifications.CreateInput{
		UserID:  target.ID,
		Type:    models.NotificationTypeFollow,
		Message: fmt.Sprintf("@%s followed you", user.Username),
		Meta: models.Metadata{
			"actor_id": user.ID,
		},
	})
	if err != nil {
		logger.Log.Warn("Failed to create follow notification",
			zap.String("target_user", target.ID),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "following"})
}

// UnfollowUser removes a follow edge
// DELETE /api/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	err := h.users.DeleteFollow(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFollowing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_following"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_unfollow", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}

// GetFollowers lists a user's followers
// GET /api/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	limit, offset := paginationParams(c)
	users, err := h.users.GetFollowers(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_followers", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"limit": limit, "offset": offset, "count": len(users)},
	})
}

// GetFollowing lists the users a user follows
// GET /api/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	limit, offset := paginationParams(c)
	users, err := h.users.GetFollowing(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_following", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"limit": limit, "offset": offset, "count": len(users)},
	})
}

// SearchUsers searches users by username or display name
// GET /api/users/search?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	limit, offset := paginationParams(c)
	users, err := h.users.SearchUsers(c.Request.Context(), query, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search_failed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"limit": limit, "offset": offset, "count": len(users)},
	})
}

// GetTrendingUsers lists users by follower count
// GET /api/users/trending
func (h *Handlers) GetTrendingUsers(c *gin.Context) {
	limit, offset := paginationParams(c)
	users, err := h.users.GetTrendingUsers(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_trending", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"meta":  gin.H{"limit": limit, "offset": offset, "count": len(users)},
	})
}

// GetTrendingHashtags returns today's most used hashtags
// GET /api/hashtags/trending
func (h *Handlers) GetTrendingHashtags(c *gin.Context) {
	if h.redis == nil {
		c.JSON(http.StatusOK, gin.H{"hashtags": []interface{}{}})
		return
	}

	limit := parseInt(c.DefaultQuery("limit", "10"), 10)
	hashtags, err := h.redis.TopHashtags(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_trending", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hashtags": hashtags})
}
