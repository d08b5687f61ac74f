package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const sessionParam = "sid"

// requireSession отклоняет запросы с идентификатором сессии не в формате UUID.
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(sessionParam)); err != nil {
			respondProblem(c, problemValidation.WithDetail("session id must be a UUID"))
			return
		}
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.Param(sessionParam)
}

func requestLog(logger *log.Entry, m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		elapsed := time.Since(started)
		status := c.Writer.Status()
		m.ObserveRequest(c.FullPath(), c.Request.Method, status, elapsed)

		entry := logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
		})
		if sid := sessionID(c); sid != "" {
			entry = entry.WithField("session_id", sid)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithError(c.Errors.Last())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Info("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

func recovery(logger *log.Entry) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.WithFields(log.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("panic while serving request")
		respondProblem(c, problemInternal)
	})
}
