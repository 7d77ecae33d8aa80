package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/testutil"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type authFixture struct {
	db     *gorm.DB
	tokens *utils.TokenService
	router *gin.Engine
	tenant testutil.Tenant
}

func newAuthFixture(t *testing.T, cache *utils.PrincipalCache) authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	tokens := utils.NewTokenService(testSecret, "hr-service", time.Hour)
	am := NewAuthMiddleware(tokens, store.New(db), cache)

	router := gin.New()
	router.GET("/whoami", am.RequireAuth(), func(c *gin.Context) {
		p, err := GetPrincipal(c)
		require.NoError(t, err)
		profile, _ := GetProfile(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "organisation_id": p.OrganisationID, "email": profile.Email})
	})

	return authFixture{
		db:     db,
		tokens: tokens,
		router: router,
		tenant: testutil.SeedTenant(t, db, "Acme", "admin@acme.test"),
	}
}

func (f authFixture) get(t *testing.T, authHeader string) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var body utils.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRequireAuth_ValidToken(t *testing.T) {
	f := newAuthFixture(t, nil)
	token, _, err := f.tokens.Issue(f.tenant.User.ID, f.tenant.Organisation.ID)
	require.NoError(t, err)

	w, _ := f.get(t, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, f.tenant.User.ID.String(), got["user_id"])
	assert.Equal(t, f.tenant.Organisation.ID.String(), got["organisation_id"])
	assert.Equal(t, "admin@acme.test", got["email"])
}

func TestRequireAuth_Rejections(t *testing.T) {
	f := newAuthFixture(t, nil)

	expired := utils.NewTokenService(testSecret, "hr-service", -time.Minute)
	expiredToken, _, err := expired.Issue(f.tenant.User.ID, f.tenant.Organisation.ID)
	require.NoError(t, err)

	ghostToken, _, err := f.tokens.Issue(uuid.New(), f.tenant.Organisation.ID)
	require.NoError(t, err)

	wrongOrgToken, _, err := f.tokens.Issue(f.tenant.User.ID, uuid.New())
	require.NoError(t, err)

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "No token provided"},
		{"not bearer", "Basic abc", "No token provided"},
		{"garbage", "Bearer nonsense", "Invalid token"},
		{"expired", "Bearer " + expiredToken, "Token expired"},
		{"unknown user", "Bearer " + ghostToken, "User not found"},
		{"organisation mismatch", "Bearer " + wrongOrgToken, "Invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := f.get(t, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tc.message, body.Message)
			assert.Equal(t, utils.ErrTagUnauthorized, body.Error)
		})
	}
}

func TestRequireAuth_UsesAndFillsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := utils.NewPrincipalCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	f := newAuthFixture(t, cache)

	token, _, err := f.tokens.Issue(f.tenant.User.ID, f.tenant.Organisation.ID)
	require.NoError(t, err)

	w, _ := f.get(t, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	cached, err := cache.Get(context.Background(), f.tenant.User.ID)
	require.NoError(t, err)
	assert.Equal(t, f.tenant.Organisation.ID, cached.OrganisationID)

	// evicting after the user is removed makes the next request consult the database
	require.NoError(t, f.db.Delete(&models.User{}, "id = ?", f.tenant.User.ID).Error)
	require.NoError(t, cache.Evict(context.Background(), f.tenant.User.ID))

	w, body := f.get(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", body.Message)
}

func corsRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(origins))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router
}

func corsRequest(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	req.Header.Set("Origin", origin)
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := corsRouter([]string{"https://hr.example.com"})

	w := corsRequest(router, http.MethodOptions, "https://hr.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://hr.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	w = corsRequest(router, http.MethodGet, "https://hr.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://hr.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")

	w = corsRequest(router, http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardAndEmpty(t *testing.T) {
	w := corsRequest(corsRouter([]string{"*"}), http.MethodGet, "https://anywhere.example.com")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = corsRequest(corsRouter(nil), http.MethodGet, "https://anywhere.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
