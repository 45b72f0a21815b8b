package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type QAHandler struct {
	qaService services.QAService
}

func NewQAHandler(qaService services.QAService) *QAHandler {
	return &QAHandler{qaService: qaService}
}

type qaTextRequest struct {
	Text string `json:"text"`
}

func (qh *QAHandler) ListQuestions(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	questions, err := qh.qaService.ListQuestions(c.Request.Context(), rc, videoID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": questions})
}

func (qh *QAHandler) MyQuestions(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	result, err := qh.qaService.MyQuestions(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (qh *QAHandler) AskQuestion(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req qaTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	question, err := qh.qaService.AskQuestion(c.Request.Context(), rc, videoID, req.Text)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, question)
}

func (qh *QAHandler) UpdateQuestion(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req qaTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	question, err := qh.qaService.UpdateQuestion(c.Request.Context(), rc, questionID, req.Text)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, question)
}

func (qh *QAHandler) DeleteQuestion(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := qh.qaService.DeleteQuestion(c.Request.Context(), rc, questionID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (qh *QAHandler) AnswerQuestion(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req qaTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	answer, err := qh.qaService.AnswerQuestion(c.Request.Context(), rc, questionID, req.Text)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, answer)
}

func (qh *QAHandler) UpdateAnswer(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	answerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req qaTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	answer, err := qh.qaService.UpdateAnswer(c.Request.Context(), rc, answerID, req.Text)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, answer)
}

func (qh *QAHandler) DeleteAnswer(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	answerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := qh.qaService.DeleteAnswer(c.Request.Context(), rc, answerID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
