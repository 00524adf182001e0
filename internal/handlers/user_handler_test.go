package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/devlink/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupStoresUsername(t *testing.T) {
	e := echo.New()
	e.Validator = validators.NewValidator()
	repo := repositories.NewMemoryUserRepository()
	handler := NewAuthHandler(repo)

	body := `{"username":"alice_dev","full_name":"Alice","email":"alice@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, handler.Signup(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	stored, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice_dev", stored.Username)
	assert.Equal(t, "alice_dev", stored.Summary().Username)
}

func TestUpdateProfileUsername(t *testing.T) {
	e := echo.New()
	e.Validator = validators.NewValidator()
	repo := repositories.NewMemoryUserRepository()
	handler := NewUserHandler(repo)

	user := &models.User{FullName: "Alice", Email: "alice@example.com"}
	require.NoError(t, repo.CreateUser(context.Background(), user))

	body := `{"username":"alice_dev","biography":"gopher"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &models.JwtCustomClaims{UserID: user.ID.Hex(), Role: models.RoleUser})

	require.NoError(t, handler.UpdateProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "alice_dev", updated.Username)

	stored, err := repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice_dev", stored.Username)
	assert.Equal(t, "gopher", stored.Biography)

	// A username shorter than three characters is rejected.
	req = httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(`{"username":"ab"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set("user", &models.JwtCustomClaims{UserID: user.ID.Hex(), Role: models.RoleUser})

	err = handler.UpdateProfile(c)
	require.Error(t, err)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
