package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/feed"
	"github.com/buildfeed/backend/internal/models"
)

type UserHandler struct {
	db  *gorm.DB
	svc *feed.Service
}

func NewUserHandler(db *gorm.DB, svc *feed.Service) *UserHandler {
	return &UserHandler{db: db, svc: svc}
}

// GetUserProfile returns a user's profile with their posts
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var posts []models.Post
	h.db.Where("user_id = ?", user.ID).Preload("User").Order("created_at desc").Find(&posts)
	if posts == nil {
		posts = []models.Post{}
	}

	// Check if current user follows this user
	isFollowing := false
	if currentID, ok := currentUserID(c); ok {
		var follow models.Follow
		err := h.db.Where("follower_id = ? AND followed_id = ?", currentID, user.ID).First(&follow).Error
		isFollowing = err == nil
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"posts":        posts,
		"is_following": isFollowing,
	})
}

// UpdateUserProfile updates the caller's own profile
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	authUserID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if authUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input struct {
		Bio string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if input.Bio != "" {
		user.Bio = input.Bio
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// FollowUser follows a user (PROTECTED)
func (h *UserHandler) FollowUser(c *gin.Context) {
	followerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	followedID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if _, err := h.svc.Follow(c.Request.Context(), followerID, followedID); err != nil {
		switch {
		case errors.Is(err, feed.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, feed.ErrSelfFollow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, feed.ErrAlreadyFollowing):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully followed user"})
}

// UnfollowUser unfollows a user (PROTECTED)
func (h *UserHandler) UnfollowUser(c *gin.Context) {
	followerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	followedID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Unfollow(c.Request.Context(), followerID, followedID); err != nil {
		switch {
		case errors.Is(err, feed.ErrFollowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully unfollowed user"})
}

// GetFollowers returns a user's followers
func (h *UserHandler) GetFollowers(c *gin.Context) {
	userID := c.Param("id")
	var follows []models.Follow

	h.db.Where("followed_id = ?", userID).Preload("Follower").Find(&follows)

	followers := []gin.H{}
	for _, follow := range follows {
		followers = append(followers, gin.H{
			"id":       follow.Follower.ID,
			"username": follow.Follower.Username,
		})
	}

	c.JSON(http.StatusOK, followers)
}

// GetFollowing returns users that a user is following
func (h *UserHandler) GetFollowing(c *gin.Context) {
	userID := c.Param("id")
	var follows []models.Follow

	h.db.Where("follower_id = ?", userID).Preload("Followed").Find(&follows)

	following := []gin.H{}
	for _, follow := range follows {
		following = append(following, gin.H{
			"id":       follow.Followed.ID,
			"username": follow.Followed.Username,
		})
	}

	c.JSON(http.StatusOK, following)
}
