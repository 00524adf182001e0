package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/devlink/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeProjectRepo is an in-memory ProjectRepository for handler tests.
type fakeProjectRepo struct {
	projects map[string]*models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*models.Project)}
}

func (f *fakeProjectRepo) CreateProject(ctx context.Context, project *models.Project) error {
	project.ID = primitive.NewObjectID()
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()
	cp := *project
	f.projects[project.ID.Hex()] = &cp
	return nil
}

func (f *fakeProjectRepo) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, repositories.ErrProjectNotFound
	}
	cp := *p
	cp.Members = append([]string{}, p.Members...)
	return &cp, nil
}

func (f *fakeProjectRepo) GetProjects(ctx context.Context, skip, limit int64) ([]models.Project, error) {
	var projects []models.Project
	for _, p := range f.projects {
		projects = append(projects, *p)
	}
	return projects, nil
}

func (f *fakeProjectRepo) UpdateProject(ctx context.Context, id string, project *models.Project) error {
	p, ok := f.projects[id]
	if !ok {
		return repositories.ErrProjectNotFound
	}
	p.Title = project.Title
	p.Description = project.Description
	p.Tags = project.Tags
	p.Technologies = project.Technologies
	p.Deadline = project.Deadline
	return nil
}

func (f *fakeProjectRepo) DeleteProject(ctx context.Context, id string) error {
	if _, ok := f.projects[id]; !ok {
		return repositories.ErrProjectNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectRepo) AddMember(ctx context.Context, projectID, userID string) error {
	p, ok := f.projects[projectID]
	if !ok {
		return repositories.ErrProjectNotFound
	}
	if !p.HasMember(userID) {
		p.Members = append(p.Members, userID)
	}
	return nil
}

func (f *fakeProjectRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	p, ok := f.projects[projectID]
	if !ok {
		return repositories.ErrProjectNotFound
	}
	out := p.Members[:0]
	for _, id := range p.Members {
		if id != userID {
			out = append(out, id)
		}
	}
	p.Members = out
	return nil
}

type projectTestEnv struct {
	e       *echo.Echo
	handler *ProjectHandler
	repo    *fakeProjectRepo
}

func newProjectTestEnv() *projectTestEnv {
	e := echo.New()
	e.Validator = validators.NewValidator()
	repo := newFakeProjectRepo()
	return &projectTestEnv{e: e, handler: NewProjectHandler(repo), repo: repo}
}

func (env *projectTestEnv) invoke(t *testing.T, handler echo.HandlerFunc, method, body, actorID string, params map[string]string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/projects", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if actorID != "" {
		c.Set("user", &models.JwtCustomClaims{UserID: actorID, Role: models.RoleUser})
	}

	err := handler(c)
	if err != nil {
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		return httpErr.Code, nil
	}
	if rec.Body.Len() == 0 {
		return rec.Code, nil
	}
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec.Code, decoded
}

func (env *projectTestEnv) seedProject(t *testing.T, ownerID string) *models.Project {
	t.Helper()
	project := &models.Project{
		Title:       "DevLink",
		Description: "A developer collaboration platform",
		OwnerID:     ownerID,
		Members:     []string{ownerID},
	}
	require.NoError(t, env.repo.CreateProject(context.Background(), project))
	return project
}

func TestCreateProject(t *testing.T) {
	env := newProjectTestEnv()
	owner := primitive.NewObjectID().Hex()

	body := `{"title":"DevLink","description":"A developer collaboration platform","tags":["go"],"technologies":["echo","mongodb"]}`
	code, decoded := env.invoke(t, env.handler.CreateProject, http.MethodPost, body, owner, nil)
	require.Equal(t, http.StatusCreated, code)

	assert.Equal(t, "DevLink", decoded["title"])
	assert.Equal(t, owner, decoded["owner_id"])
	members := decoded["members"].([]interface{})
	require.Len(t, members, 1)
	assert.Equal(t, owner, members[0])
}

func TestCreateProjectValidation(t *testing.T) {
	env := newProjectTestEnv()
	owner := primitive.NewObjectID().Hex()

	// Title and description are required.
	code, _ := env.invoke(t, env.handler.CreateProject, http.MethodPost, `{"title":"DevLink"}`, owner, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.invoke(t, env.handler.CreateProject, http.MethodPost, `{"title":"x","description":"y"}`, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGetProjectNotFound(t *testing.T) {
	env := newProjectTestEnv()
	code, _ := env.invoke(t, env.handler.GetProject, http.MethodGet, "", "", map[string]string{"id": primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestJoinProject(t *testing.T) {
	env := newProjectTestEnv()
	owner := primitive.NewObjectID().Hex()
	project := env.seedProject(t, owner)
	joiner := primitive.NewObjectID().Hex()
	params := map[string]string{"id": project.ID.Hex()}

	code, decoded := env.invoke(t, env.handler.JoinProject, http.MethodPost, "", joiner, params)
	require.Equal(t, http.StatusOK, code)
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, true, data["member"])

	stored, err := env.repo.GetProjectByID(context.Background(), project.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.HasMember(joiner))

	// Joining twice is a conflict, and so is the owner re-joining.
	code, _ = env.invoke(t, env.handler.JoinProject, http.MethodPost, "", joiner, params)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = env.invoke(t, env.handler.JoinProject, http.MethodPost, "", owner, params)
	assert.Equal(t, http.StatusConflict, code)
}

func TestLeaveProject(t *testing.T) {
	env := newProjectTestEnv()
	owner := primitive.NewObjectID().Hex()
	project := env.seedProject(t, owner)
	member := primitive.NewObjectID().Hex()
	require.NoError(t, env.repo.AddMember(context.Background(), project.ID.Hex(), member))
	params := map[string]string{"id": project.ID.Hex()}

	// A non-member cannot leave.
	code, _ := env.invoke(t, env.handler.LeaveProject, http.MethodPost, "", primitive.NewObjectID().Hex(), params)
	assert.Equal(t, http.StatusConflict, code)

	// The owner cannot leave their own project.
	code, _ = env.invoke(t, env.handler.LeaveProject, http.MethodPost, "", owner, params)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.invoke(t, env.handler.LeaveProject, http.MethodPost, "", member, params)
	require.Equal(t, http.StatusOK, code)

	stored, err := env.repo.GetProjectByID(context.Background(), project.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.HasMember(member))
	assert.True(t, stored.HasMember(owner))
}

func TestRemoveMember(t *testing.T) {
	env := newProjectTestEnv()
	owner := primitive.NewObjectID().Hex()
	project := env.seedProject(t, owner)
	member := primitive.NewObjectID().Hex()
	require.NoError(t, env.repo.AddMember(context.Background(), project.ID.Hex(), member))

	params := func(userID string) map[string]string {
		return map[string]string{"id": project.ID.Hex(), "user_id": userID}
	}

	// Only the owner may remove members.
	code, _ := env.invoke(t, env.handler.RemoveMember, http.MethodDelete, "", member, params(member))
	assert.Equal(t, http.StatusForbidden, code)

	// The owner cannot be removed.
	code, _ = env.invoke(t, env.handler.RemoveMember, http.MethodDelete, "", owner, params(owner))
	assert.Equal(t, http.StatusBadRequest, code)

	// Removing a non-member is a conflict.
	code, _ = env.invoke(t, env.handler.RemoveMember, http.MethodDelete, "", owner, params(primitive.NewObjectID().Hex()))
	assert.Equal(t, http.StatusConflict, code)

	code, decoded := env.invoke(t, env.handler.RemoveMember, http.MethodDelete, "", owner, params(member))
	require.Equal(t, http.StatusOK, code)
	data := decoded["data"].(map[string]interface{})
	assert.Equal(t, member, data["removed_member_id"])

	stored, err := env.repo.GetProjectByID(context.Background(), project.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.HasMember(member))
}

func TestUpdateProjectOwnerOnly(t *testing.T) {
	env := newProjectTestEnv()
	owner := primitive.NewObjectID().Hex()
	project := env.seedProject(t, owner)
	params := map[string]string{"id": project.ID.Hex()}

	code, _ := env.invoke(t, env.handler.UpdateProject, http.MethodPut, `{"title":"Renamed"}`, primitive.NewObjectID().Hex(), params)
	assert.Equal(t, http.StatusForbidden, code)

	code, decoded := env.invoke(t, env.handler.UpdateProject, http.MethodPut, `{"title":"Renamed"}`, owner, params)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Renamed", decoded["title"])

	// Fields absent from the request stay untouched.
	stored, err := env.repo.GetProjectByID(context.Background(), project.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, "A developer collaboration platform", stored.Description)
}

func TestDeleteProjectOwnerOnly(t *testing.T) {
	env := newProjectTestEnv()
	owner := primitive.NewObjectID().Hex()
	project := env.seedProject(t, owner)
	params := map[string]string{"id": project.ID.Hex()}

	code, _ := env.invoke(t, env.handler.DeleteProject, http.MethodDelete, "", primitive.NewObjectID().Hex(), params)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.invoke(t, env.handler.DeleteProject, http.MethodDelete, "", owner, params)
	assert.Equal(t, http.StatusNoContent, code)

	_, err := env.repo.GetProjectByID(context.Background(), project.ID.Hex())
	assert.ErrorIs(t, err, repositories.ErrProjectNotFound)
}
