package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin, DepartmentID: "cse"})
		c.Next()
	})
	router.POST("/timetables/save", Audit(zap.New(core), "timetable.save"), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	router.POST("/timetables/generate", Audit(zap.New(core), "timetable.generate"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/timetables/save", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/timetables/generate", nil))

	require.Equal(t, 1, logs.Len(), "failed requests are not audited")
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "timetable.save", fields["action"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "cse", fields["department_id"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
}
