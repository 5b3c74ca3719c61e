package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"daybook/internal/domain/auth"
	"daybook/internal/middleware"
	jwtsvc "daybook/internal/pkg/jwt"
)

type dataResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

type errorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type handlerFixture struct {
	*serviceFixture
	router *gin.Engine
	jwt    *jwtsvc.Service
}

func setupHandler(t *testing.T, cfg Config) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := setupService(t, cfg)
	jwt := jwtsvc.New("test-secret", time.Hour)

	router := gin.New()
	protected := router.Group("/api/v1")
	protected.Use(middleware.RequireAuth(jwt))
	RegisterRoutes(protected, NewHandler(f.svc))

	return &handlerFixture{serviceFixture: f, router: router, jwt: jwt}
}

func (f *handlerFixture) token(t *testing.T, user *auth.User) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	return token
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (f *handlerFixture) upload(t *testing.T, token, entryID, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, data)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/entries/%s/attachments", entryID), body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *handlerFixture) request(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func assertErrorCode(t *testing.T, resp *httptest.ResponseRecorder, code string) errorResponse {
	t.Helper()
	var payload errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.False(t, payload.Success)
	require.Equal(t, code, payload.Error.Code)
	require.NotEmpty(t, payload.Error.Message)
	return payload
}

func TestUploadEndpoint(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 100}))
	user := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(user.ID)
	token := f.token(t, user)

	resp := f.upload(t, token, entryID, "clip.mp4", mp4Payload(2))
	require.Equal(t, http.StatusCreated, resp.Code)

	var payload dataResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.NotEmpty(t, payload.Data["id"])
	require.NotEmpty(t, payload.Data["url"])
	require.Equal(t, "video", payload.Data["kind"])
	require.Equal(t, float64(2), payload.Data["size_mb"])
}

func TestUploadEndpointRequiresAuth(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 100}))
	user := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(user.ID)

	resp := f.upload(t, "", entryID, "clip.mp4", mp4Payload(1))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assertErrorCode(t, resp, "UNAUTHORIZED")
}

func TestUploadEndpointNoFile(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 100}))
	user := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(user.ID)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/entries/%s/attachments", entryID), nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, user))
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assertErrorCode(t, resp, "NO_FILE")
}

func TestUploadEndpointUnsupportedType(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 100}))
	user := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(user.ID)

	resp := f.upload(t, f.token(t, user), entryID, "notes.txt", []byte("plain text"))
	require.Equal(t, http.StatusUnsupportedMediaType, resp.Code)
	assertErrorCode(t, resp, "UNSUPPORTED_MEDIA_TYPE")
}

func TestUploadEndpointQuotaDetails(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 10}))
	user := f.addUser(t, auth.TierPersonal, 6)
	entryID := f.addEntry(user.ID)

	resp := f.upload(t, f.token(t, user), entryID, "clip.mp4", mp4Payload(5))
	require.Equal(t, http.StatusForbidden, resp.Code)

	payload := assertErrorCode(t, resp, "QUOTA_EXCEEDED")
	require.Equal(t, "personal", payload.Error.Details["tier"])
	require.Equal(t, float64(10), payload.Error.Details["limit_mb"])
	require.Equal(t, float64(4), payload.Error.Details["remaining_mb"])
}

func TestUploadEndpointFileTooLarge(t *testing.T) {
	cfg := testConfig(TierLimits{auth.TierPersonal: 1000})
	cfg.VideoMaxMB = 3
	f := setupHandler(t, cfg)
	user := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(user.ID)

	resp := f.upload(t, f.token(t, user), entryID, "clip.mp4", mp4Payload(4))
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	payload := assertErrorCode(t, resp, "FILE_TOO_LARGE")
	require.Equal(t, "video", payload.Error.Details["kind"])
	require.Equal(t, float64(3), payload.Error.Details["limit_mb"])
}

func TestReadURLEndpoint(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 100}))
	user := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(user.ID)
	token := f.token(t, user)

	resp := f.upload(t, token, entryID, "clip.mp4", mp4Payload(1))
	require.Equal(t, http.StatusCreated, resp.Code)
	var uploaded dataResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	id := uploaded.Data["id"].(string)

	resp = f.request(t, http.MethodGet, "/api/v1/attachments/"+id+"/url", token)
	require.Equal(t, http.StatusOK, resp.Code)
	var payload dataResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotEmpty(t, payload.Data["url"])

	resp = f.request(t, http.MethodGet, "/api/v1/attachments/unknown-id/url", token)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assertErrorCode(t, resp, "NOT_FOUND")
}

func TestDeleteEndpointForeignAttachment(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 100}))
	owner := f.addUser(t, auth.TierPersonal, 0)
	intruder := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(owner.ID)

	resp := f.upload(t, f.token(t, owner), entryID, "clip.mp4", mp4Payload(1))
	require.Equal(t, http.StatusCreated, resp.Code)
	var uploaded dataResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	id := uploaded.Data["id"].(string)

	resp = f.request(t, http.MethodDelete, "/api/v1/attachments/"+id, f.token(t, intruder))
	require.Equal(t, http.StatusForbidden, resp.Code)
	assertErrorCode(t, resp, "FORBIDDEN")
}

func TestListEndpoint(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 100}))
	user := f.addUser(t, auth.TierPersonal, 0)
	entryID := f.addEntry(user.ID)
	token := f.token(t, user)

	for i := 0; i < 2; i++ {
		resp := f.upload(t, token, entryID, fmt.Sprintf("clip%d.mp4", i), mp4Payload(1))
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := f.request(t, http.MethodGet, fmt.Sprintf("/api/v1/entries/%s/attachments", entryID), token)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data, 2)
}

func TestUsageEndpoint(t *testing.T) {
	f := setupHandler(t, testConfig(TierLimits{auth.TierPersonal: 600}))
	user := f.addUser(t, auth.TierPersonal, 590)

	resp := f.request(t, http.MethodGet, "/api/v1/media/usage", f.token(t, user))
	require.Equal(t, http.StatusOK, resp.Code)

	var payload dataResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "personal", payload.Data["tier"])
	require.Equal(t, float64(600), payload.Data["limit_mb"])
	require.Equal(t, float64(590), payload.Data["used_mb"])
	require.Equal(t, float64(10), payload.Data["remaining_mb"])
}
