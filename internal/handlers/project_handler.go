package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ProjectHandler handles HTTP requests related to collaborative projects
type ProjectHandler struct {
	projectRepository repositories.ProjectRepository
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectRepo repositories.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{projectRepository: projectRepo}
}

// RegisterProjectRoutes registers the authenticated project routes
func (h *ProjectHandler) RegisterProjectRoutes(g *echo.Group) {
	g.POST("/projects", h.CreateProject)
	g.PUT("/projects/:id", h.UpdateProject)
	g.DELETE("/projects/:id", h.DeleteProject)
	g.POST("/projects/:id/join", h.JoinProject)
	g.POST("/projects/:id/leave", h.LeaveProject)
	g.DELETE("/projects/:id/members/:user_id", h.RemoveMember)
}

// RegisterPublicProjectRoutes registers the public project listing routes
func (h *ProjectHandler) RegisterPublicProjectRoutes(g *echo.Group) {
	g.GET("/projects", h.GetProjects)
	g.GET("/projects/:id", h.GetProject)
}

// CreateProject creates a new project with the authenticated user as owner
// and first member
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project := &models.Project{
		Title:        req.Title,
		Description:  req.Description,
		Tags:         req.Tags,
		Technologies: req.Technologies,
		Deadline:     req.Deadline,
		OwnerID:      currentUserID,
		Members:      []string{currentUserID},
	}

	if err := h.projectRepository.CreateProject(c.Request().Context(), project); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, project)
}

// GetProjects lists projects, newest first
func (h *ProjectHandler) GetProjects(c echo.Context) error {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit == 0 {
		limit = 10
	}

	projects, err := h.projectRepository.GetProjects(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, projects)
}

// GetProject retrieves a project by ID
func (h *ProjectHandler) GetProject(c echo.Context) error {
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// UpdateProject updates a project's descriptive fields. Owner only.
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if project.OwnerID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the project owner can update the project")
	}

	if req.Title != "" {
		project.Title = req.Title
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Tags != nil {
		project.Tags = req.Tags
	}
	if req.Technologies != nil {
		project.Technologies = req.Technologies
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline
	}

	if err := h.projectRepository.UpdateProject(c.Request().Context(), c.Param("id"), project); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject deletes a project. Owner only.
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if project.OwnerID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the project owner can delete the project")
	}

	if err := h.projectRepository.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// JoinProject adds the authenticated user to the project's members
func (h *ProjectHandler) JoinProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if project.HasMember(currentUserID) {
		return echo.NewHTTPError(http.StatusConflict, "You are already a member of this project")
	}

	if err := h.projectRepository.AddMember(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"project_id": c.Param("id"),
		"member":     true,
	}})
}

// LeaveProject removes the authenticated user from the project's members.
// The owner cannot leave their own project.
func (h *ProjectHandler) LeaveProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if !project.HasMember(currentUserID) {
		return echo.NewHTTPError(http.StatusConflict, "You are not a member of this project")
	}
	if project.OwnerID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "The owner cannot leave the project")
	}

	if err := h.projectRepository.RemoveMember(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"project_id": c.Param("id"),
		"member":     false,
	}})
}

// RemoveMember removes a member from the project. Owner only; the owner
// cannot remove themselves.
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	memberID := c.Param("user_id")

	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if project.OwnerID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the project owner can remove members")
	}
	if memberID == project.OwnerID {
		return echo.NewHTTPError(http.StatusBadRequest, "The owner cannot be removed from the project")
	}
	if !project.HasMember(memberID) {
		return echo.NewHTTPError(http.StatusConflict, "User is not a member of this project")
	}

	if err := h.projectRepository.RemoveMember(c.Request().Context(), c.Param("id"), memberID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"project_id":        c.Param("id"),
		"removed_member_id": memberID,
	}})
}

func (h *ProjectHandler) loadProject(c echo.Context) (*models.Project, error) {
	project, err := h.projectRepository.GetProjectByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrProjectNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Project not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return project, nil
}
