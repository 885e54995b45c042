package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/feed"
	"github.com/buildfeed/backend/internal/models"
)

type PostHandler struct {
	db  *gorm.DB
	svc *feed.Service
}

func NewPostHandler(db *gorm.DB, svc *feed.Service) *PostHandler {
	return &PostHandler{db: db, svc: svc}
}

// GetPosts returns top-level posts, sorted by "new" (default) or "top"
func (h *PostHandler) GetPosts(c *gin.Context) {
	query := h.db.Preload("User").Where("parent_id IS NULL AND repost_of_id IS NULL")

	switch c.DefaultQuery("sort", "new") {
	case "top":
		query = query.Order("score desc, created_at desc")
	default:
		query = query.Order("created_at desc")
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	// If no posts, return empty array not null
	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID with its replies
func (h *PostHandler) GetPost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := h.db.Preload("User").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	var replies []models.Post
	h.db.Preload("User").Where("parent_id = ?", post.ID).Order("created_at asc").Find(&replies)
	if replies == nil {
		replies = []models.Post{}
	}

	c.JSON(http.StatusOK, gin.H{
		"post":    post,
		"replies": replies,
	})
}

// GetTimeline returns top-level posts by the current user and everyone they follow
func (h *PostHandler) GetTimeline(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	followedIDs := h.db.Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", userID)

	var posts []models.Post
	if err := h.db.Preload("User").
		Where("parent_id IS NULL").
		Where("user_id = ? OR user_id IN (?)", userID, followedIDs).
		Order("created_at desc").
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch timeline"})
		return
	}

	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, posts)
}

// CreatePost creates a new post, reply, or repost (PROTECTED)
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrBlankBody):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, feed.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent post not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		}
		return
	}

	h.db.Preload("User").First(post, post.ID)

	c.JSON(http.StatusCreated, post)
}

// DeletePost deletes a post and everything hanging off it (PROTECTED)
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeletePost(c.Request.Context(), postID, userID); err != nil {
		switch {
		case errors.Is(err, feed.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, feed.ErrNotPostOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
