package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/metrics"
)

// NewRouter wires the REST API. Every /api/v1 route requires a bearer token; role guards split
// teacher and student endpoints.
func NewRouter(ctrl *app.Controller, secret string, logger *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), requestMetrics(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	h := NewHandler(ctrl)
	api := r.Group("/api/v1", authMiddleware(secret))

	teacher := api.Group("", requireRole(domain.RoleTeacher))
	teacher.POST("/sessions", h.CreateSession)
	teacher.POST("/sessions/:id/start", h.StartSession)
	teacher.POST("/sessions/:id/next", h.NextSessionQuestion)
	teacher.POST("/sessions/:id/end", h.EndSession)
	teacher.GET("/sessions/:id/questions", h.SessionQuestions)
	teacher.GET("/sessions/:id/stats", h.LiveStats)
	teacher.GET("/sessions/:id/distribution/:questionId", h.Distribution)
	teacher.GET("/sessions/:id/grading", h.PendingGrading)
	teacher.GET("/sessions/:id/results", h.DetailedResults)
	teacher.POST("/responses/:id/grade", h.GradeResponse)
	teacher.GET("/classes/:classId/sessions", h.History)

	student := api.Group("", requireRole(domain.RoleStudent))
	student.GET("/sessions/:id/next-question", h.StudentNextQuestion)
	student.POST("/questions/:id/answers", h.SubmitAnswer)

	api.GET("/sessions/:id", h.SessionStatus)
	api.GET("/classes/:classId/active-session", h.ActiveSession)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if caller := callerFrom(c); caller.ID != "" {
			fields = append(fields, zap.String("caller_id", caller.ID))
		}
		if len(c.Errors) > 0 {
			logger.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		logger.Info("request", fields...)
	}
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.Request(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
