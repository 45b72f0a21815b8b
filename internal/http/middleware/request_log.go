package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

// RequestLogger emits one structured log line per request and persists an
// access log row for the analytics dashboards. The row is written off the
// request goroutine; a failed insert is logged and dropped, never surfaced.
func RequestLogger(log *logger.Logger, accessLogRepo repos.AccessLogRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		duration := time.Since(start)
		td := ctxutil.GetTraceData(c.Request.Context())
		rc := ctxutil.GetRequestContext(c.Request.Context())

		if log != nil {
			fields := []interface{}{
				"method", strings.ToUpper(c.Request.Method),
				"path", path,
				"status", status,
				"duration_ms", duration.Milliseconds(),
			}
			if td != nil {
				if td.TraceID != "" {
					fields = append(fields, "trace_id", td.TraceID)
				}
				if td.RequestID != "" {
					fields = append(fields, "request_id", td.RequestID)
				}
			}
			if rc != nil {
				fields = append(fields, "user_id", rc.UserID.String())
			}
			switch {
			case status >= 500:
				log.Error("HTTP request", fields...)
			case status >= 400:
				log.Warn("HTTP request", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		}

		if accessLogRepo == nil {
			return
		}
		entry := &types.AccessLog{
			Path:       path,
			Method:     strings.ToUpper(c.Request.Method),
			StatusCode: status,
			UserAgent:  c.Request.UserAgent(),
			IPAddress:  c.ClientIP(),
			Referrer:   c.Request.Referer(),
			DurationMS: duration.Milliseconds(),
		}
		if rc != nil && rc.UserID != uuid.Nil {
			userID := rc.UserID
			entry.UserID = &userID
			entry.TenantID = rc.TenantID
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := accessLogRepo.Create(ctx, nil, entry); err != nil && log != nil {
				log.Warn("Could not persist access log", "path", entry.Path, "error", err)
			}
		}()
	}
}
