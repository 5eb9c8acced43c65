package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// Post is a community board entry. Only the pieces the notification write path
// touches are modeled here.
type Post struct {
	gorm.Model
	Title    string `gorm:"size:255;not null" json:"title"`
	Content  string `gorm:"not null" json:"content"`
	AuthorID uint   `gorm:"not null;index" json:"authorId"`

	Author   User      `gorm:"foreignKey:AuthorID" json:"-"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"-"`
}

// Comment belongs to a post; creating one notifies the post author.
type Comment struct {
	gorm.Model
	Content  string `gorm:"size:1000;not null" json:"content"`
	PostID   uint   `gorm:"not null;index" json:"postId"`
	AuthorID uint   `gorm:"not null;index" json:"authorId"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

// Follow links a follower to the user they follow; creating one notifies the
// followed user.
type Follow struct {
	gorm.Model
	FollowerID uint `gorm:"not null;uniqueIndex:idx_follow_pair" json:"followerId"`
	FollowedID uint `gorm:"not null;uniqueIndex:idx_follow_pair" json:"followedId"`
}

/** -------------------- DTOs -------------------- */
// Request
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// Response
type PostResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	PostID    uint      `json:"postId"`
	AuthorID  uint      `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse converts a Post entity into its public representation.
func (p *Post) ToResponse() PostResponse {
	resp := PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}
	resp.Author.ID = p.AuthorID
	resp.Author.Username = p.Author.Username
	return resp
}

// ToResponse converts a Comment entity into its public representation.
func (c *Comment) ToResponse() CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
	}
}
