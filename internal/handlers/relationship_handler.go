package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/devlink/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RelationshipHandler handles follow/unfollow HTTP requests. The target
// identity comes from the URL and the actor identity from the authenticated
// context; these endpoints read no request body.
type RelationshipHandler struct {
	relationshipService *services.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler
func NewRelationshipHandler(relationshipService *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

// RegisterRelationshipRoutes registers the authenticated relationship routes
func (h *RelationshipHandler) RegisterRelationshipRoutes(g *echo.Group) {
	g.POST("/relationships/:id/follow", h.Follow)
	g.POST("/relationships/:id/unfollow", h.Unfollow)
	g.GET("/relationships/:id/status", h.GetStatus)
}

// RegisterPublicRelationshipRoutes registers the public listing routes
func (h *RelationshipHandler) RegisterPublicRelationshipRoutes(g *echo.Group) {
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// Follow makes the authenticated user follow the target user
func (h *RelationshipHandler) Follow(c echo.Context) error {
	actorID := getUserIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	result, err := h.relationshipService.Follow(c.Request().Context(), actorID, c.Param("id"))
	if err != nil {
		return relationshipHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"following":          true,
		"followed_user_id":   result.UserID,
		"followed_user_name": result.FullName,
	}})
}

// Unfollow removes the authenticated user's follow of the target user
func (h *RelationshipHandler) Unfollow(c echo.Context) error {
	actorID := getUserIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	result, err := h.relationshipService.Unfollow(c.Request().Context(), actorID, c.Param("id"))
	if err != nil {
		return relationshipHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"following":          false,
		"unfollowed_user_id": result.UserID,
	}})
}

// GetStatus reports whether the authenticated user follows the target user
func (h *RelationshipHandler) GetStatus(c echo.Context) error {
	actorID := getUserIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	status, err := h.relationshipService.GetFollowStatus(c.Request().Context(), actorID, c.Param("id"))
	if err != nil {
		return relationshipHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": status})
}

// GetFollowers lists the users following the given user
func (h *RelationshipHandler) GetFollowers(c echo.Context) error {
	limit, offset := pageParams(c)
	users, err := h.relationshipService.GetFollowers(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return relationshipHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	}})
}

// GetFollowing lists the users the given user follows
func (h *RelationshipHandler) GetFollowing(c echo.Context) error {
	limit, offset := pageParams(c)
	users, err := h.relationshipService.GetFollowing(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return relationshipHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	}})
}

// relationshipHTTPError maps service errors onto HTTP status codes. The 409
// conditions are benign to the UI, which reconciles its local toggle state
// instead of showing an error banner.
func relationshipHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, services.ErrInvalidUserID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID format")
	case errors.Is(err, services.ErrSelfFollow):
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot follow or unfollow yourself")
	case errors.Is(err, services.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrAlreadyFollowing):
		return echo.NewHTTPError(http.StatusConflict, "You are already following this user")
	case errors.Is(err, services.ErrNotFollowing):
		return echo.NewHTTPError(http.StatusConflict, "You are not following this user")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func pageParams(c echo.Context) (limit, offset int64) {
	limit, _ = strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	offset, _ = strconv.ParseInt(c.QueryParam("offset"), 10, 64)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
