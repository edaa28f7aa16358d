package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/interface/middleware"
	"github.com/matrixnet/social-service/internal/service"
	"github.com/matrixnet/social-service/pkg/response"
	"github.com/matrixnet/social-service/pkg/validation"
)

// PostHandler adapts post, comment and like requests into bus commands
// and read-side queries.
type PostHandler struct {
	Bus    *service.MessageBus
	Views  *service.Views
	Logger *logrus.Logger
}

type createPostRequest struct {
	Body     string `json:"body" binding:"required"`
	ImageURL string `json:"image_url"`
}

type addCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *PostHandler) Create(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	results, err := h.Bus.Handle(c.Request.Context(), domain.CreatePost{
		UserID:   userID,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"post_id": results[0]}, "post created")
}

func (h *PostHandler) Get(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid post id", nil)
		return
	}
	post, err := h.Views.GetPost(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "post lookup failed", nil)
		return
	}
	if post == nil {
		response.Error(c, http.StatusNotFound, "post not found", nil)
		return
	}
	response.Success(c, http.StatusOK, postJSON(post), "post")
}

func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.Views.ListPosts(c.Request.Context(), c.Query("sort"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "post listing failed", nil)
		return
	}
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, postJSON(p))
	}
	response.Success(c, http.StatusOK, out, "posts")
}

func (h *PostHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	posts, err := h.Views.ListUserPosts(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "post listing failed", nil)
		return
	}
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, postJSON(p))
	}
	response.Success(c, http.StatusOK, out, "posts")
}

func (h *PostHandler) AddComment(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid post id", nil)
		return
	}
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	results, err := h.Bus.Handle(c.Request.Context(), domain.AddComment{
		PostID: postID,
		UserID: userID,
		Body:   req.Body,
	})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"comment_id": results[0]}, "comment added")
}

func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid post id", nil)
		return
	}

	results, err := h.Bus.Handle(c.Request.Context(), domain.ToggleLike{PostID: postID, UserID: userID})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"liked": results[0]}, "like toggled")
}

func postJSON(p *domain.PostAggregate) gin.H {
	comments := make([]gin.H, 0, len(p.Comments))
	for _, cm := range p.Comments {
		comments = append(comments, gin.H{
			"id":         cm.ID,
			"user_id":    cm.UserID,
			"username":   cm.Username,
			"body":       cm.Body,
			"created_at": cm.CreatedAt,
		})
	}
	return gin.H{
		"id":         p.ID,
		"user_id":    p.UserID,
		"username":   p.Username,
		"body":       p.Body,
		"image_url":  p.ImageURL,
		"comments":   comments,
		"like_count": len(p.Likes),
		"created_at": p.CreatedAt,
	}
}
