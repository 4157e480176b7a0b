package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a public chirp
type Post struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Content  string      `gorm:"type:text;not null" json:"content"`
	Hashtags StringArray `gorm:"type:text[]" json:"hashtags"`
	MediaURL string      `json:"media_url,omitempty"`

	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostLike records one user liking one post
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PostID    string    `gorm:"not null;index;uniqueIndex:idx_post_likes_pair" json:"post_id"`
	UserID    string    `gorm:"not null;index;uniqueIndex:idx_post_likes_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply to a post, optionally nested under another comment
type Comment struct {
	ID       string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID   string  `gorm:"not null;index" json:"post_id"`
	AuthorID string  `gorm:"not null;index" json:"author_id"`
	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Poll is attached to a post and carries its options inline
type Poll struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;uniqueIndex" json:"post_id"`

	Question  string     `gorm:"type:text;not null" json:"question"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Options []PollOption `gorm:"foreignKey:PollID" json:"options"`

	CreatedAt time.Time `json:"created_at"`
}

// PollOption is one votable choice of a poll
type PollOption struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PollID string `gorm:"not null;index" json:"poll_id"`
	Text   string `gorm:"not null" json:"text"`

	VoteCount int `gorm:"default:0" json:"vote_count"`
}

// PollVote records one user's vote; a user votes at most once per poll
type PollVote struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PollID    string    `gorm:"not null;index;uniqueIndex:idx_poll_votes_pair" json:"poll_id"`
	OptionID  string    `gorm:"not null;index" json:"option_id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_poll_votes_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
