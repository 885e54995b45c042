package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildfeed/backend/internal/feed"
)

type VoteHandler struct {
	svc *feed.Service
}

func NewVoteHandler(svc *feed.Service) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// CastVote toggles the caller's vote on a post (PROTECTED).
// 201 when a new vote was created, 200 for a toggle-off or value change.
func (h *VoteHandler) CastVote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	// Out-of-range values coerce to +1 inside the engine, so the binding
	// deliberately does not reject them.
	var input struct {
		Value int `json:"value"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.CastVote(c.Request.Context(), postID, userID, input.Value)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, feed.ErrSelfVote):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, feed.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		}
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": result})
}

// RemoveVote deletes the caller's vote on a post (PROTECTED).
// 404 when no vote exists.
func (h *VoteHandler) RemoveVote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	result, err := h.svc.RemoveVote(c.Request.Context(), postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, feed.ErrVoteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Vote not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove vote"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
