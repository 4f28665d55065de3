package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// DepartmentScope keeps department-bound tokens inside their department. The department is
// read from the :departmentId path parameter or the departmentId query. Super admins and
// tokens without a department pass through; body payloads are checked by the handlers.
func DepartmentScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || claims.Role == models.RoleSuperAdmin || claims.DepartmentID == "" {
			c.Next()
			return
		}
		department := c.Param("departmentId")
		if department == "" {
			department = c.Query("departmentId")
		}
		if department != "" && department != claims.DepartmentID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token is not scoped to this department"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CanAccessDepartment reports whether the claims may act on the department.
func CanAccessDepartment(claims *models.JWTClaims, departmentID string) bool {
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleSuperAdmin || claims.DepartmentID == "" {
		return true
	}
	return claims.DepartmentID == departmentID
}
