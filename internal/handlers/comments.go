package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chirpsocial/backend/internal/config"
	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/notifications"
	"github.com/chirpsocial/backend/internal/repository"
)

// createCommentRequest is the JSON body for creating a comment
type createCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// CreateComment adds a comment to a post, optionally nested under another
// comment, and notifies the post author or the parent comment author
// POST /api/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	postID := c.Param("id")
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if len(req.Content) > maxPostLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_too_long", "max_length": maxPostLength})
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_comment", "message": err.Error()})
		return
	}

	var parent *models.Comment
	if req.ParentID != nil {
		parent, err = h.posts.GetComment(c.Request.Context(), *req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrCommentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "parent_comment_not_found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_comment", "message": err.Error()})
			return
		}
		if parent.PostID != postID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent_comment_wrong_post"})
			return
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: user.ID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := h.posts.CreateComment(c.Request.Context(), comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_comment", "message": err.Error()})
		return
	}

	h.notifyCommented(c, user, post, parent, comment)
	h.notifyMentions(c, user, postID, req.Content)

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// notifyCommented picks the notification recipient for a new comment.
// Top-level comments notify the post author. For replies the recipient
// follows the configured policy: the post author or the parent comment's
// author.
func (h *Handlers) notifyCommented(c *gin.Context, actor *models.User, post *models.Post, parent *models.Comment, comment *models.Comment) {
	recipientID := post.AuthorID
	notificationType := models.NotificationTypeComment
	message := fmt.Sprintf("@%s commented on your post", actor.Username)

	if parent != nil {
		notificationType = models.NotificationTypeReply
		if h.cfg.ReplyNotify == config.NotifyCommentAuthor {
			recipientID = parent.AuthorID
			message = fmt.Sprintf("@%s replied to your comment", actor.Username)
		} else {
			message = fmt.Sprintf("@%s replied on your post", actor.Username)
		}
	}

	if recipientID == actor.ID {
		return
	}

	meta := models.Metadata{
		"actor_id":   actor.ID,
		"post_id":    post.ID,
		"comment_id": comment.ID,
	}
	if parent != nil {
		meta["parent_comment_id"] = parent.ID
	}

	_, err := h.notifications.Create(c.Request.Context(), notifications.CreateInput{
		UserID:  recipientID,
		Type:    notificationType,
		Message: message,
		Meta:    meta,
	})
	if err != nil {
		logger.Log.Warn("Failed to create comment notification",
			zap.String("post_id", post.ID),
			zap.Error(err))
	}
}

// GetComments lists a post's comments, oldest first
// GET /api/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	limit, offset := paginationParams(c)

	comments, err := h.posts.GetCommentsForPost(c.Request.Context(), postID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_comments", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta":     gin.H{"limit": limit, "offset": offset, "count": len(comments)},
	})
}
