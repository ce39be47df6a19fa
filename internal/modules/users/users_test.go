package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity/internal/database"
	"identity/internal/domain"
	"identity/internal/middleware"
	"identity/internal/pkg/jwt"
	"identity/internal/repository"
)

type fixture struct {
	users   *repository.UserRepository
	refresh *repository.RefreshTokenRepository
	codec   *jwt.Service
	service *Service
	router  *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		users:   repository.NewUserRepository(db),
		refresh: repository.NewRefreshTokenRepository(db),
		codec:   jwt.New("test-secret", 15*time.Minute),
	}
	f.service = NewService(f.users, f.refresh)

	f.router = gin.New()
	NewHandler(f.service).RegisterRoutes(f.router.Group("/api/v1"), middleware.JWTAuth(f.codec))
	return f
}

func (f *fixture) seed(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u := domain.NewPasswordUser(email, "Test", "hash", true, time.Now().UTC())
	u.Role = role
	require.NoError(t, f.users.Create(context.Background(), nil, u))
	return u
}

func (f *fixture) token(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := f.codec.GenerateAccessToken(u.Principal())
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeUser(t *testing.T, w *httptest.ResponseRecorder) UserResponse {
	t.Helper()
	var body struct {
		Data UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestGetMe(t *testing.T) {
	f := newFixture(t)
	ann := f.seed(t, "ann@example.com", domain.RoleUser)

	w := f.do(http.MethodGet, "/api/v1/users/me", nil, f.token(t, ann))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decodeUser(t, w)
	assert.Equal(t, ann.ID.String(), me.ID)
	assert.Equal(t, domain.Privileges(domain.RoleUser), me.Privileges)
}

func TestGetMe_RequiresAuth(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestList_AdminOnly(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin@example.com", domain.RoleAdmin)
	ann := f.seed(t, "ann@example.com", domain.RoleUser)

	w := f.do(http.MethodGet, "/api/v1/users?limit=1", nil, f.token(t, ann))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodGet, "/api/v1/users?limit=1", nil, f.token(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Data ListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body.Data.Total)
	assert.Len(t, body.Data.Users, 1)

	w = f.do(http.MethodGet, "/api/v1/users?limit=500", nil, f.token(t, admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin@example.com", domain.RoleAdmin)
	ann := f.seed(t, "ann@example.com", domain.RoleUser)

	w := f.do(http.MethodPut, "/api/v1/users/"+ann.ID.String()+"/role", gin.H{"role": "admin"}, f.token(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.RoleAdmin, decodeUser(t, w).Role)

	stored, err := f.users.GetByID(context.Background(), nil, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
}

func TestUpdateRole_Errors(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin@example.com", domain.RoleAdmin)
	ann := f.seed(t, "ann@example.com", domain.RoleUser)
	adminToken := f.token(t, admin)

	cases := []struct {
		name   string
		path   string
		body   any
		token  string
		status int
		code   string
	}{
		{"unknown role", "/api/v1/users/" + ann.ID.String() + "/role", gin.H{"role": "ROOT"}, adminToken, http.StatusBadRequest, "INVALID_ROLE"},
		{"bad id", "/api/v1/users/abc/role", gin.H{"role": "USER"}, adminToken, http.StatusBadRequest, "INVALID_USER_ID"},
		{"missing user", "/api/v1/users/" + uuid.NewString() + "/role", gin.H{"role": "USER"}, adminToken, http.StatusNotFound, "USER_NOT_FOUND"},
		{"self", "/api/v1/users/" + admin.ID.String() + "/role", gin.H{"role": "USER"}, adminToken, http.StatusConflict, "SELF_MODIFICATION"},
		{"not admin", "/api/v1/users/" + admin.ID.String() + "/role", gin.H{"role": "USER"}, f.token(t, ann), http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(http.MethodPut, tc.path, tc.body, tc.token)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tc.code)
		})
	}
}

func TestSetEnabled_DisableRevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.seed(t, "admin@example.com", domain.RoleAdmin)
	ann := f.seed(t, "ann@example.com", domain.RoleUser)
	require.NoError(t, f.refresh.Upsert(ctx, nil, &domain.RefreshToken{
		UserID:    ann.ID,
		TokenHash: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		CreatedAt: time.Now().UTC(),
	}))

	w := f.do(http.MethodPut, "/api/v1/users/"+ann.ID.String()+"/enabled", gin.H{"enabled": false}, f.token(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decodeUser(t, w).Enabled)

	_, err := f.refresh.GetByUser(ctx, ann.ID)
	assert.Error(t, err)

	w = f.do(http.MethodPut, "/api/v1/users/"+ann.ID.String()+"/enabled", gin.H{"enabled": true}, f.token(t, admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decodeUser(t, w).Enabled)
}

func TestSetEnabled_MissingField(t *testing.T) {
	f := newFixture(t)
	admin := f.seed(t, "admin@example.com", domain.RoleAdmin)
	ann := f.seed(t, "ann@example.com", domain.RoleUser)

	w := f.do(http.MethodPut, "/api/v1/users/"+ann.ID.String()+"/enabled", gin.H{}, f.token(t, admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestService_SetEnabledChecksSpecificPrivilege(t *testing.T) {
	f := newFixture(t)
	ann := f.seed(t, "ann@example.com", domain.RoleUser)
	actor := domain.Principal{ID: uuid.New(), Authorities: []string{string(domain.PrivilegeEnableUser)}}

	_, err := f.service.SetEnabled(context.Background(), &actor, ann.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	user, err := f.service.SetEnabled(context.Background(), &actor, ann.ID, true)
	require.NoError(t, err)
	assert.True(t, user.Enabled)
}
