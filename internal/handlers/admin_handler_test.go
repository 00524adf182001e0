package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devlink/backend/internal/models"
	"github.com/devlink/backend/internal/repositories"
	"github.com/devlink/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAuditRecordRepo is an in-memory AuditRecordRepository for handler tests.
type fakeAuditRecordRepo struct {
	records []models.AuditRecord
}

func (f *fakeAuditRecordRepo) CreateAuditRecord(record *models.AuditRecord) error {
	record.ID = uint(len(f.records) + 1)
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeAuditRecordRepo) GetByUserID(userID string, page, limit int) ([]models.AuditRecord, int64, error) {
	var matched []models.AuditRecord
	for _, r := range f.records {
		if r.UserID == userID {
			matched = append(matched, r)
		}
	}
	total := int64(len(matched))
	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []models.AuditRecord{}, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeAuditRecordRepo) GetRecent(limit int) ([]models.AuditRecord, error) {
	if len(f.records) > limit {
		return f.records[len(f.records)-limit:], nil
	}
	return f.records, nil
}

func invokeAdminHandler(t *testing.T, handler echo.HandlerFunc, target, paramID string) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramID != "" {
		c.SetParamNames("id")
		c.SetParamValues(paramID)
	}
	c.Set("user", &models.JwtCustomClaims{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin})

	err := handler(c)
	if err != nil {
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		return httpErr.Code, nil
	}

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestAuditUserEndpoint(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	userRepo := repositories.NewMemoryUserRepository()
	auditRepo := &fakeAuditRecordRepo{}
	handler := NewAdminHandler(services.NewAuditService(userRepo, auditRepo, logger), auditRepo)

	alice := &models.User{FullName: "Alice", Email: "alice@example.com"}
	require.NoError(t, userRepo.CreateUser(context.Background(), alice))
	bob := &models.User{FullName: "Bob", Email: "bob@example.com"}
	require.NoError(t, userRepo.CreateUser(context.Background(), bob))

	require.NoError(t, userRepo.LinkFollow(context.Background(), alice.ID, bob.ID))
	require.NoError(t, userRepo.Corrupt(bob.ID, func(u *models.User) {
		u.Followers = []primitive.ObjectID{}
	}))

	code, body := invokeAdminHandler(t, handler.AuditUser, "/api/v1/admin/relationships/"+alice.ID.Hex()+"/audit", alice.ID.Hex())
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["consistent"])
	assert.Equal(t, float64(1), data["fixed"])

	code, _ = invokeAdminHandler(t, handler.AuditUser, "/api/v1/admin/relationships/x/audit", "not-hex")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuditHistoryEndpoint(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	userRepo := repositories.NewMemoryUserRepository()
	auditRepo := &fakeAuditRecordRepo{}
	auditService := services.NewAuditService(userRepo, auditRepo, logger)
	handler := NewAdminHandler(auditService, auditRepo)

	alice := &models.User{FullName: "Alice", Email: "alice@example.com"}
	require.NoError(t, userRepo.CreateUser(context.Background(), alice))

	// Two runs for Alice, one for someone else.
	_, err := auditService.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)
	_, err = auditService.AuditUser(context.Background(), alice.ID.Hex())
	require.NoError(t, err)
	auditRepo.records = append(auditRepo.records, models.AuditRecord{UserID: primitive.NewObjectID().Hex()})

	code, body := invokeAdminHandler(t, handler.AuditHistory, "/api/v1/admin/relationships/"+alice.ID.Hex()+"/audits", alice.ID.Hex())
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	records := data["records"].([]interface{})
	require.Len(t, records, 2)
	first := records[0].(map[string]interface{})
	assert.Equal(t, alice.ID.Hex(), first["user_id"])
}

func TestAuditHistoryWithoutStore(t *testing.T) {
	handler := NewAdminHandler(nil, nil)
	code, _ := invokeAdminHandler(t, handler.AuditHistory, "/api/v1/admin/relationships/x/audits", primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotImplemented, code)
}
