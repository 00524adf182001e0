package handlers

import (
	"errors"
	"net/http"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.DELETE("/profile", h.DeleteUser) // Delete own user profile
	g.GET("/users", h.ListUsers)
	g.GET("/users/:id", h.GetUser) // Get other user's profile by ID
}

// GetUser retrieves a user's public profile with follower/following counts
func (h *UserHandler) GetUser(c echo.Context) error {
	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID format")
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), objID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"user":            user.Summary(),
		"follower_count":  user.FollowerCount(),
		"following_count": user.FollowingCount(),
	}})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Biography != "" {
		user.Biography = req.Biography
	}
	if req.SkillSet != nil {
		user.SkillSet = req.SkillSet
	}
	if req.UserLocation != "" {
		user.UserLocation = req.UserLocation
	}

	if err := h.userRepository.UpdateUser(c.Request().Context(), user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes the authenticated user's profile. References to the
// deleted user left on other documents become dangling and are pruned by the
// relationship auditor.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	if err := h.userRepository.DeleteUser(c.Request().Context(), user.ID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// ListUsers retrieves users with pagination
func (h *UserHandler) ListUsers(c echo.Context) error {
	limit, offset := pageParams(c)
	users, err := h.userRepository.GetUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"users":  summaries,
		"limit":  limit,
		"offset": offset,
	}})
}

// SearchUsers searches for users by a query string (email or name)
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": summaries})
}

func (h *UserHandler) currentUser(c echo.Context) (*models.User, error) {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid user identity in token")
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), objID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return user, nil
}
