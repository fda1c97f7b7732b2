package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/services"
)

type UserHandler struct {
	users *services.UserService
	log   *zap.Logger
}

// GetUsers lists users, optionally matching ?search=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, page, err := h.users.List(c.Request.Context(), c.Query("search"), c.Query("page"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, users)
}

// GetUserProfile returns the public profile of a user
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profile, err := h.users.Profile(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateUserProfile updates the caller's own profile, any profile for staff.
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.users.Update(c.Request.Context(), actor(c), id, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FollowUser follows the user, or unfollows when already following.
func (h *UserHandler) FollowUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	msg, err := h.users.ToggleFollow(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// GetFollowers returns list of followers
func (h *UserHandler) GetFollowers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	users, page, err := h.users.Followers(c.Request.Context(), id, c.Query("page"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, users)
}

// GetFollowing returns list of users being followed
func (h *UserHandler) GetFollowing(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	users, page, err := h.users.Following(c.Request.Context(), id, c.Query("page"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, users)
}

// GetRelations lists the follow relations involving the caller.
func (h *UserHandler) GetRelations(c *gin.Context) {
	follows, page, err := h.users.Relations(c.Request.Context(), actor(c), c.Query("page"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	paginated(c, page, follows)
}
