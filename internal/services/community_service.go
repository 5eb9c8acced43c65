package services

import (
	"context"
	"fmt"

	"realtime-service/internal/models"
)

// CommunityRepository is the persistence contract for the write paths that
// trigger notifications.
type CommunityRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context) ([]models.Post, error)
	FindPostByID(ctx context.Context, id uint) (*models.Post, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	CreateFollow(ctx context.Context, follow *models.Follow) error
}

// Notifier is the producer contract exposed to write-path handlers:
// fire-and-forget from the caller's point of view.
type Notifier interface {
	Notify(ctx context.Context, kind models.NotificationKind, content string, recipientID, senderID uint, link string) error
}

// WriteResult separates the outcome of the secondary notification effect from
// the primary mutation. Handlers log NotifyErr; they never propagate it as a
// request error, since the primary mutation already committed.
type WriteResult struct {
	NotifyErr error
}

// CommunityService owns the write paths (follow, post, comment) whose
// committed mutations trigger notification records.
type CommunityService struct {
	repo     CommunityRepository
	users    UserRepository
	notifier Notifier
}

func NewCommunityService(repo CommunityRepository, users UserRepository, notifier Notifier) *CommunityService {
	return &CommunityService{repo: repo, users: users, notifier: notifier}
}

// Follow records the follow, then notifies the followed user. The primary
// error reports the mutation; the WriteResult carries the notification
// outcome separately.
func (s *CommunityService) Follow(ctx context.Context, followerID, targetID uint) (WriteResult, error) {
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return WriteResult{}, err
	}
	follower, err := s.users.FindByID(ctx, followerID)
	if err != nil {
		return WriteResult{}, err
	}

	follow := &models.Follow{FollowerID: followerID, FollowedID: target.ID}
	if err := s.repo.CreateFollow(ctx, follow); err != nil {
		return WriteResult{}, err
	}

	notifyErr := s.notifier.Notify(ctx,
		models.NotificationFollow,
		fmt.Sprintf("%s started following you", follower.Username),
		target.ID,
		followerID,
		fmt.Sprintf("/profile?userId=%d", followerID),
	)
	return WriteResult{NotifyErr: notifyErr}, nil
}

func (s *CommunityService) CreatePost(ctx context.Context, authorID uint, req *models.CreatePostRequest) (*models.PostResponse, error) {
	post := &models.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: authorID,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if author, err := s.users.FindByID(ctx, authorID); err == nil {
		post.Author = *author
	}
	resp := post.ToResponse()
	return &resp, nil
}

func (s *CommunityService) ListPosts(ctx context.Context) ([]models.PostResponse, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]models.PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, posts[i].ToResponse())
	}
	return responses, nil
}

// CreateComment records the comment, then notifies the post author. A comment
// on the author's own post produces no notification (suppressed by the
// producer's self-notification guard).
func (s *CommunityService) CreateComment(ctx context.Context, authorID, postID uint, req *models.CreateCommentRequest) (*models.CommentResponse, WriteResult, error) {
	post, err := s.repo.FindPostByID(ctx, postID)
	if err != nil {
		return nil, WriteResult{}, err
	}
	commenter, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, WriteResult{}, err
	}

	comment := &models.Comment{
		Content:  req.Content,
		PostID:   post.ID,
		AuthorID: authorID,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, WriteResult{}, err
	}

	notifyErr := s.notifier.Notify(ctx,
		models.NotificationComment,
		fmt.Sprintf("%s commented on your post", commenter.Username),
		post.AuthorID,
		authorID,
		fmt.Sprintf("/community/%d", post.ID),
	)
	resp := comment.ToResponse()
	return &resp, WriteResult{NotifyErr: notifyErr}, nil
}
