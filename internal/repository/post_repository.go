package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/chirpsocial/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrPollNotFound    = errors.New("poll not found")
	ErrAlreadyLiked    = errors.New("already liked")
	ErrNotLiked        = errors.New("not liked")
	ErrAlreadyVoted    = errors.New("already voted")
)

// PostRepository handles all database operations for posts, comments,
// likes and polls
type PostRepository interface {
	// Post CRUD
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	DeletePost(ctx context.Context, postID, authorID string) error

	// Post queries
	GetPostsByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Post, error)
	GetFeedForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Post, error)
	GetPostsByHashtag(ctx context.Context, hashtag string, limit, offset int) ([]*models.Post, error)
	GetRecentPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)

	// Likes
	CreateLike(ctx context.Context, postID, userID string) error
	DeleteLike(ctx context.Context, postID, userID string) error

	// Comments
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, commentID string) (*models.Comment, error)
	GetCommentsForPost(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error)

	// Polls
	CreatePoll(ctx context.Context, poll *models.Poll) error
	GetPollForPost(ctx context.Context, postID string) (*models.Poll, error)
	CreatePollVote(ctx context.Context, pollID, optionID, userID string) error
}

// postRepository implements PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// CreatePost creates a post and bumps the author's post counter
func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post == nil || post.AuthorID == "" {
		return ErrInvalidInput
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", post.AuthorID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
}

// GetPost gets a post by ID with its author preloaded
func (r *postRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", postID).
		First(&post).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}

	return &post, err
}

// DeletePost soft deletes a post owned by authorID
func (r *postRepository) DeletePost(ctx context.Context, postID, authorID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("id = ? AND author_id = ?", postID, authorID).
			Delete(&models.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}

		return tx.Model(&models.User{}).
			Where("id = ? AND post_count > 0", authorID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
}

// GetPostsByAuthor gets a user's posts, newest first
func (r *postRepository) GetPostsByAuthor(ctx context.Context, authorID string, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post

	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error

	return posts, err
}

// GetFeedForUser gets posts from the user and everyone they follow,
// newest first
func (r *postRepository) GetFeedForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post

	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id = ? OR author_id IN (?)",
			userID,
			r.db.Table("follows").Select("following_id").Where("follower_id = ?", userID),
		).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error

	return posts, err
}

// GetPostsByHashtag gets posts tagged with the given hashtag, newest first
func (r *postRepository) GetPostsByHashtag(ctx context.Context, hashtag string, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post

	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("? = ANY(hashtags)", hashtag).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error

	return posts, err
}

// GetRecentPosts gets the newest public posts
func (r *postRepository) GetRecentPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post

	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error

	return posts, err
}

// CreateLike records a like and bumps the post's like counter
func (r *postRepository) CreateLike(ctx context.Context, postID, userID string) error {
	if postID == "" || userID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyLiked
		}

		like := models.PostLike{PostID: postID, UserID: userID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
}

// DeleteLike removes a like and drops the post's like counter
func (r *postRepository) DeleteLike(ctx context.Context, postID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.PostLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotLiked
		}

		return tx.Model(&models.Post{}).
			Where("id = ? AND like_count > 0", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
}

// CreateComment creates a comment and bumps the post's comment counter
func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment == nil || comment.PostID == "" || comment.AuthorID == "" {
		return ErrInvalidInput
	}
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if comment.ParentID != nil {
			var parent models.Comment
			err := tx.Where("id = ? AND post_id = ?", *comment.ParentID, comment.PostID).
				First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			if err != nil {
				return err
			}
		}

		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

// GetComment gets a comment by ID
func (r *postRepository) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Where("id = ?", commentID).First(&comment).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommentNotFound
	}

	return &comment, err
}

// GetCommentsForPost gets a post's comments, oldest first
func (r *postRepository) GetCommentsForPost(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment

	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error

	return comments, err
}

// CreatePoll creates a poll with its options
func (r *postRepository) CreatePoll(ctx context.Context, poll *models.Poll) error {
	if poll == nil || poll.PostID == "" || len(poll.Options) < 2 {
		return ErrInvalidInput
	}
	if poll.ID == "" {
		poll.ID = uuid.New().String()
	}
	for i := range poll.Options {
		if poll.Options[i].ID == "" {
			poll.Options[i].ID = uuid.New().String()
		}
	}

	return r.db.WithContext(ctx).Create(poll).Error
}

// GetPollForPost gets the poll attached to a post, with options
func (r *postRepository) GetPollForPost(ctx context.Context, postID string) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).
		Preload("Options").
		Where("post_id = ?", postID).
		First(&poll).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPollNotFound
	}

	return &poll, err
}

// CreatePollVote records a vote and bumps the option counter. A user gets
// one vote per poll.
func (r *postRepository) CreatePollVote(ctx context.Context, pollID, optionID, userID string) error {
	if pollID == "" || optionID == "" || userID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PollVote{}).
			Where("poll_id = ? AND user_id = ?", pollID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyVoted
		}

		var option models.PollOption
		err := tx.Where("id = ? AND poll_id = ?", optionID, pollID).First(&option).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPollNotFound
		}
		if err != nil {
			return err
		}

		vote := models.PollVote{PollID: pollID, OptionID: optionID, UserID: userID}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		return tx.Model(&models.PollOption{}).
			Where("id = ?", optionID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error
	})
}
