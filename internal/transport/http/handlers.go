package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Handler adapts REST requests to the session controller.
type Handler struct {
	ctrl *app.Controller
}

func NewHandler(ctrl *app.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

type createSessionRequest struct {
	TimeLimitSeconds int                    `json:"time_limit_seconds" binding:"min=0"`
	Questions        []domain.QuestionDraft `json:"questions"`
	Generate         *app.GenerateRequest   `json:"generate"`
}

type submitAnswerRequest struct {
	Answer           string `json:"answer" binding:"required"`
	TimeSpentSeconds int    `json:"time_spent_seconds" binding:"min=0"`
}

type gradeRequest struct {
	IsCorrect *bool `json:"is_correct" binding:"required"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if !bind(c, &req) {
		return
	}
	caller := callerFrom(c)

	var (
		snap domain.SessionSnapshot
		err  error
	)
	switch {
	case req.Generate != nil && len(req.Questions) > 0:
		err = fmt.Errorf("%w: send either questions or generate, not both", domain.ErrInvalidInput)
	case req.Generate != nil:
		gen := *req.Generate
		if gen.TimeLimitSeconds == 0 {
			gen.TimeLimitSeconds = req.TimeLimitSeconds
		}
		snap, err = h.ctrl.GenerateSession(c.Request.Context(), caller, gen)
	default:
		snap, err = h.ctrl.CreateSession(c.Request.Context(), caller, req.TimeLimitSeconds, req.Questions)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *Handler) StartSession(c *gin.Context) {
	h.respond(c)(h.ctrl.Start(c.Request.Context(), callerFrom(c), c.Param("id")))
}

func (h *Handler) NextSessionQuestion(c *gin.Context) {
	h.respond(c)(h.ctrl.Next(c.Request.Context(), callerFrom(c), c.Param("id")))
}

func (h *Handler) EndSession(c *gin.Context) {
	h.respond(c)(h.ctrl.End(c.Request.Context(), callerFrom(c), c.Param("id")))
}

func (h *Handler) SessionStatus(c *gin.Context) {
	h.respond(c)(h.ctrl.Status(c.Request.Context(), callerFrom(c), c.Param("id")))
}

func (h *Handler) SessionQuestions(c *gin.Context) {
	questions, err := h.ctrl.Questions(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *Handler) ActiveSession(c *gin.Context) {
	snap, err := h.ctrl.FindActive(c.Request.Context(), callerFrom(c), c.Param("classId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": snap})
}

func (h *Handler) StudentNextQuestion(c *gin.Context) {
	q, err := h.ctrl.NextQuestion(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": q})
}

func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if !bind(c, &req) {
		return
	}
	h.respond(c)(h.ctrl.SubmitAnswer(c.Request.Context(), callerFrom(c), c.Param("id"), req.Answer, req.TimeSpentSeconds))
}

func (h *Handler) LiveStats(c *gin.Context) {
	h.respond(c)(h.ctrl.LiveStats(c.Request.Context(), callerFrom(c), c.Param("id")))
}

func (h *Handler) Distribution(c *gin.Context) {
	questionID := c.Param("questionId")
	counts, err := h.ctrl.Distribution(c.Request.Context(), callerFrom(c), c.Param("id"), questionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question_id": questionID, "counts": counts})
}

func (h *Handler) DetailedResults(c *gin.Context) {
	h.respond(c)(h.ctrl.DetailedResults(c.Request.Context(), callerFrom(c), c.Param("id")))
}

func (h *Handler) PendingGrading(c *gin.Context) {
	pending, err := h.ctrl.PendingGrading(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": pending})
}

func (h *Handler) GradeResponse(c *gin.Context) {
	var req gradeRequest
	if !bind(c, &req) {
		return
	}
	h.respond(c)(h.ctrl.GradeResponse(c.Request.Context(), callerFrom(c), c.Param("id"), *req.IsCorrect))
}

func (h *Handler) History(c *gin.Context) {
	summaries, err := h.ctrl.History(c.Request.Context(), callerFrom(c), c.Param("classId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

// respond writes a controller result as 200 JSON or maps its error.
func (h *Handler) respond(c *gin.Context) func(interface{}, error) {
	return func(v interface{}, err error) {
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abort(c, http.StatusBadRequest, "invalid_input", err.Error())
		return false
	}
	return true
}
