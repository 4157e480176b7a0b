package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/repository"
)

// createPollRequest is the JSON body for attaching a poll to a new post
type createPollRequest struct {
	Content     string   `json:"content" binding:"required"`
	Question    string   `json:"question" binding:"required"`
	Options     []string `json:"options" binding:"required,min=2,max=4"`
	DurationHrs int      `json:"duration_hours"`
}

// CreatePoll creates a post with an attached poll
// POST /api/polls
func (h *Handlers) CreatePoll(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	for _, opt := range req.Options {
		if opt == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty_poll_option"})
			return
		}
	}

	post := &models.Post{
		AuthorID: user.ID,
		Content:  req.Content,
		Hashtags: extractHashtags(req.Content),
	}
	if err := h.posts.CreatePost(c.Request.Context(), post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_create_poll", "message": err.Error()})
		return
	}

	poll := &models.Poll{
		PostID:   post.ID,
		Question: req.Question,
	}
	if req.DurationHrs > 0 {
		expires := time.Now().Add(time.Duration(req.DurationHrs) * time.Hour)
		poll.ExpiresAt = &expires
	}
	for _, opt := range req.Options {
		poll.Options = append(poll.Options, models.PollOption{Text: opt})
	}

	if err := h.posts.CreatePoll(c.Request.Context(), poll); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_create_poll", "message": err.Error()})
		return
	}
	post.Author = *user

	c.JSON(http.StatusCreated, gin.H{"post": post, "poll": poll})
}

// GetPoll gets the poll attached to a post, with vote counts
// GET /api/posts/:id/poll
func (h *Handlers) GetPoll(c *gin.Context) {
	poll, err := h.posts.GetPollForPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "poll_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_poll", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"poll": poll})
}

// VotePoll casts the user's vote on a post's poll and notifies the author
// POST /api/posts/:id/poll/vote
func (h *Handlers) VotePoll(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	postID := c.Param("id")
	var req struct {
		OptionID string `json:"option_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	poll, err := h.posts.GetPollForPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "poll_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_vote", "message": err.Error()})
		return
	}
	if poll.ExpiresAt != nil && time.Now().After(*poll.ExpiresAt) {
		c.JSON(http.StatusGone, gin.H{"error": "poll_expired"})
		return
	}

	err = h.posts.CreatePollVote(c.Request.Context(), poll.ID, req.OptionID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyVoted):
			c.JSON(http.StatusConflict, gin.H{"error": "already_voted"})
		case errors.Is(err, repository.ErrPollNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "poll_option_not_found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_vote", "message": err.Error()})
		}
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if err == nil && post.AuthorID != user.ID {
		_, err := h.notifications.Create(c.Request.Context(), notifications.CreateInput{
			UserID:  post.AuthorID,
			Type:    models.NotificationTypePoll,
			Message: fmt.Sprintf("@%s voted on your poll", user.Username),
			Meta: models.Metadata{
				"actor_id": user.ID,
				"post_id":  postID,
				"poll_id":  poll.ID,
			},
		})
		if err != nil {
			logger.Log.Warn("Failed to create poll notification",
				zap.String("post_id", postID),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "voted"})
}
