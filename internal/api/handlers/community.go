package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"realtime-service/internal/api/middleware"
	"realtime-service/internal/models"
	"realtime-service/internal/repositories/postgres"
	"realtime-service/internal/services"

	"github.com/gin-gonic/gin"
)

// CommunityHandler exposes the write paths whose mutations trigger
// notifications. A failed notification is logged and never fails the request:
// the primary mutation already committed.
type CommunityHandler struct {
	community *services.CommunityService
}

func NewCommunityHandler(community *services.CommunityService) *CommunityHandler {
	return &CommunityHandler{community: community}
}

func (h *CommunityHandler) Follow(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid user id",
		})
		return
	}

	result, err := h.community.Follow(c.Request.Context(), middleware.UserID(c), uint(targetID))
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrUserNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "User not found",
			})
		case errors.Is(err, postgres.ErrAlreadyFollowed):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    http.StatusConflict,
				Message: "Already following",
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "Follow failed",
			})
		}
		return
	}

	logNotifyFailure(c, result)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *CommunityHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
		})
		return
	}

	post, err := h.community.CreatePost(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create post",
		})
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *CommunityHandler) ListPosts(c *gin.Context) {
	posts, err := h.community.ListPosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list posts",
		})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *CommunityHandler) CreateComment(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid post id",
		})
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
		})
		return
	}

	comment, result, err := h.community.CreateComment(c.Request.Context(), middleware.UserID(c), uint(postID), &req)
	if err != nil {
		if errors.Is(err, postgres.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Post not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create comment",
		})
		return
	}

	logNotifyFailure(c, result)
	c.JSON(http.StatusCreated, comment)
}

func logNotifyFailure(c *gin.Context, result services.WriteResult) {
	if result.NotifyErr != nil {
		slog.Error("Secondary notification failed",
			"path", c.Request.URL.Path,
			"userID", middleware.UserID(c),
			"error", result.NotifyErr)
	}
}
