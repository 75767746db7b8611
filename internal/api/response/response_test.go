package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	UserName string `json:"userName" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
}

func bind(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var s signup
	return w, BindJSON(c, &s)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ok         bool
		wantError  string
		wantFields []any
	}{
		{name: "valid", body: `{"userName":"alice","password":"pw"}`, ok: true},
		{name: "malformed", body: `{"userName":`, wantError: MsgInvalidJSON},
		{name: "wrong type", body: `{"userName":1,"password":"pw"}`, wantError: MsgInvalidFields, wantFields: []any{"userName"}},
		{name: "not an object", body: `["alice","pw"]`, wantError: MsgInvalidJSON},
		{name: "empty body", body: ``, wantError: MsgInvalidJSON},
		{name: "missing password", body: `{"userName":"alice"}`, wantError: MsgMissingFields, wantFields: []any{"password"}},
		{name: "missing both", body: `{}`, wantError: MsgMissingFields, wantFields: []any{"userName", "password"}},
		{name: "invalid email", body: `{"userName":"a","password":"b","email":"nope"}`, wantError: MsgInvalidFields, wantFields: []any{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := bind(t, tt.body)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
			out := decode(t, w)
			assert.Equal(t, tt.wantError, out["error"])
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, out["fields"])
			}
		})
	}
}

func TestInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Internal(c, "failed to do the thing", errors.New("secret database detail"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, c.IsAborted())
	assert.Equal(t, map[string]any{"error": MsgInternal}, decode(t, w))
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestEnvelopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Unauthorized(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, map[string]any{"status": float64(403), "message": "Unauthorized"}, decode(t, w))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	BadRequest(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"status": float64(400), "message": "Bad Request"}, decode(t, w))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	InvalidFields(c, "password")
	assert.Equal(t, map[string]any{"error": "Invalid fields", "fields": []any{"password"}}, decode(t, w))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Status(c, http.StatusBadGateway, "Error fetching dealers")
	assert.Equal(t, map[string]any{"status": float64(502), "message": "Error fetching dealers"}, decode(t, w))
}
