package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/models"
)

const auditResourceIDKey = "audit_resource_id"

// AuditRecorder persists access audit entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SetAuditResource names the resource a handler served so Audit can record it.
func SetAuditResource(c *gin.Context, id string) {
	c.Set(auditResourceIDKey, id)
}

// Audit records an access entry after each successful request. Failures are logged, never surfaced.
func Audit(recorder AuditRecorder, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
			CreatedAt: start,
		}
		if claims, ok := CurrentClaims(c); ok {
			entry.UserID = &claims.UserID
		}
		if id := c.GetString(auditResourceIDKey); id != "" {
			entry.ResourceID = &id
		}
		entry.NewValues, _ = json.Marshal(map[string]interface{}{
			"path":       c.FullPath(),
			"method":     c.Request.Method,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})

		if err := recorder.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("access audit not recorded", zap.String("action", action), zap.Error(err))
		}
	}
}
