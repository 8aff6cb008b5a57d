package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/attendance"
	"schoolhub/internal/config"
)

// memStore is a minimal attendance.Store for handler tests.
type memStore struct {
	tokens  []attendance.Token
	records map[string]bool
}

func (m *memStore) CreateToken(_ context.Context, t attendance.Token) (attendance.Token, error) {
	if t.ID == "" {
		t.ID = "tok-1"
	}
	m.tokens = append(m.tokens, t)
	return t, nil
}

func (m *memStore) FindValidToken(_ context.Context, subjectID, teacherID int64, now time.Time) (*attendance.Token, error) {
	for i := len(m.tokens) - 1; i >= 0; i-- {
		t := m.tokens[i]
		if t.SubjectID == subjectID && t.TeacherID == teacherID && t.IsActive && t.ExpiresAt.After(now) {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memStore) DeactivateToken(_ context.Context, id string) error { return nil }

func (m *memStore) MarkPresent(_ context.Context, studentID, subjectID int64, day time.Time) (float64, error) {
	if m.records == nil {
		m.records = map[string]bool{}
	}
	m.records[day.Format("2006-01-02")] = true
	return 100, nil
}

type memDir struct{}

func (memDir) SubjectOwner(_ context.Context, subjectID int64) (int64, error) { return 3, nil }

func newTestRouter(t *testing.T) (*gin.Engine, config.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.App{
		JWTIssuer:     "schoolhub-test",
		JWTSigningKey: "test-secret",
		AccessTTL:     time.Hour,
	}
	svc := attendance.NewService(&memStore{}, memDir{}, 15*time.Minute)
	h := New(svc, nil, nil, nil, nil, nil, cfg)

	r := gin.New()
	h.Register(r)
	return r, cfg
}

func doJSON(t *testing.T, r *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func mintToken(t *testing.T, r *gin.Engine, principal, role string) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/v1/token", "", gin.H{
		"principal_id": principal,
		"role":         role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestIssueAndScanFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	teacherTok := mintToken(t, r, "3", "teacher")
	studentTok := mintToken(t, r, "42", "student")

	rec := doJSON(t, r, http.MethodPost, "/v1/subjects/7/qr", teacherTok, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var issued struct {
		QRPNG  string `json:"qr_png"`
		QRData string `json:"qr_data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	assert.NotEmpty(t, issued.QRPNG)
	assert.NotEmpty(t, issued.QRData)

	rec = doJSON(t, r, http.MethodPost, "/v1/attendance/scan", studentTok, gin.H{"qr_data": issued.QRData})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var scanned struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scanned))
	assert.True(t, scanned.Success)
	assert.NotEmpty(t, scanned.Message)
}

func TestScanRejectsGarbagePayload(t *testing.T) {
	r, _ := newTestRouter(t)
	studentTok := mintToken(t, r, "42", "student")

	rec := doJSON(t, r, http.MethodPost, "/v1/attendance/scan", studentTok, gin.H{"qr_data": "not a token"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PAYLOAD")
}

func TestRoleEnforcement(t *testing.T) {
	r, _ := newTestRouter(t)
	studentTok := mintToken(t, r, "42", "student")

	// student cannot mint attendance codes
	rec := doJSON(t, r, http.MethodPost, "/v1/subjects/7/qr", studentTok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// and no bearer means no entry
	rec = doJSON(t, r, http.MethodPost, "/v1/attendance/scan", "", gin.H{"qr_data": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueForbiddenForNonOwningTeacher(t *testing.T) {
	r, _ := newTestRouter(t)
	otherTeacher := mintToken(t, r, "99", "teacher")

	rec := doJSON(t, r, http.MethodPost, "/v1/subjects/7/qr", otherTeacher, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestMintTokenValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/v1/token", "", gin.H{"principal_id": "1", "role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
