package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"live-quiz-service/internal/domain"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorMapping struct {
	err       error
	status    int
	code      string
	retryable bool
}

// Order matters: transition failures may also wrap ErrForbidden or ErrNotActive.
var errorMappings = []errorMapping{
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition", true},
	{domain.ErrConflictingSession, http.StatusConflict, "conflicting_session", false},
	{domain.ErrNoMoreQuestions, http.StatusConflict, "no_more_questions", false},
	{domain.ErrSessionClosed, http.StatusConflict, "session_closed", false},
	{domain.ErrSessionNotStarted, http.StatusConflict, "session_not_started", true},
	{domain.ErrAlreadyGraded, http.StatusConflict, "already_graded", false},
	{domain.ErrAlreadyAnswered, http.StatusConflict, "already_answered", false},
	{domain.ErrWrongQuestionType, http.StatusUnprocessableEntity, "wrong_question_type", false},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden", false},
	{domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found", false},
	{domain.ErrQuestionNotFound, http.StatusNotFound, "question_not_found", false},
	{domain.ErrResponseNotFound, http.StatusNotFound, "response_not_found", false},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input", false},
	{domain.ErrNotActive, http.StatusConflict, "invalid_transition", true},
}

func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			abortWith(c, m.status, errorBody{Code: m.code, Message: err.Error(), Retryable: m.retryable})
			return
		}
	}
	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, "internal", "internal error")
}

func abort(c *gin.Context, status int, code, message string) {
	abortWith(c, status, errorBody{Code: code, Message: message})
}

func abortWith(c *gin.Context, status int, body errorBody) {
	c.AbortWithStatusJSON(status, errorResponse{Error: body})
}
