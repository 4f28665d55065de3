package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := stubValidator{
		"admin":   {UserID: "u-1", Role: models.RoleAdmin, DepartmentID: "cse"},
		"faculty": {UserID: "u-2", Role: models.RoleFaculty, DepartmentID: "cse"},
		"super":   {UserID: "u-3", Role: models.RoleSuperAdmin, DepartmentID: "ece"},
	}
	router := gin.New()
	group := router.Group("/timetables", JWT(tokens), DepartmentScope())
	group.GET("/:departmentId", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	group.POST("/generate", RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": ClaimsFromContext(c).UserID})
	})
	return router
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTAndRoles(t *testing.T) {
	router := newAuthRouter()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"missing token", http.MethodGet, "/timetables/cse", "", http.StatusUnauthorized},
		{"unknown token", http.MethodGet, "/timetables/cse", "forged", http.StatusUnauthorized},
		{"own department", http.MethodGet, "/timetables/cse", "faculty", http.StatusNoContent},
		{"other department", http.MethodGet, "/timetables/mech", "faculty", http.StatusForbidden},
		{"super admin crosses departments", http.MethodGet, "/timetables/mech", "super", http.StatusNoContent},
		{"faculty cannot generate", http.MethodPost, "/timetables/generate", "faculty", http.StatusForbidden},
		{"admin generates", http.MethodPost, "/timetables/generate", "admin", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, serve(router, tc.method, tc.path, tc.token).Code)
		})
	}
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router := newAuthRouter()
	req := httptest.NewRequest(http.MethodGet, "/timetables/cse", nil)
	req.Header.Set("Authorization", "Basic abc")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "malformed authorization header")
}

func TestCanAccessDepartment(t *testing.T) {
	assert.False(t, CanAccessDepartment(nil, "cse"))
	assert.True(t, CanAccessDepartment(&models.JWTClaims{Role: models.RoleAdmin}, "cse"))
	assert.True(t, CanAccessDepartment(&models.JWTClaims{Role: models.RoleAdmin, DepartmentID: "cse"}, "cse"))
	assert.False(t, CanAccessDepartment(&models.JWTClaims{Role: models.RoleAdmin, DepartmentID: "cse"}, "ece"))
	assert.True(t, CanAccessDepartment(&models.JWTClaims{Role: models.RoleSuperAdmin, DepartmentID: "cse"}, "ece"))
}
