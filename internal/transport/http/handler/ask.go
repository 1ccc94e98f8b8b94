package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notewise/internal/app"
	"notewise/internal/transport/http/middleware"
	"notewise/internal/transport/http/response"
)

type AskHandler struct {
	answerService       *app.AnswerService
	studySetService     *app.StudySetService
	conversationService *app.ConversationService
}

type AskRequest struct {
	SubjectID           string     `json:"subject_id" binding:"required"`
	Question            string     `json:"question" binding:"required"`
	ConversationHistory []app.Turn `json:"conversation_history"`
	Mode                string     `json:"mode"`
}

type StudySetRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
}

func NewAskHandler(
	answerService *app.AnswerService,
	studySetService *app.StudySetService,
	conversationService *app.ConversationService,
) *AskHandler {
	return &AskHandler{
		answerService:       answerService,
		studySetService:     studySetService,
		conversationService: conversationService,
	}
}

func (h *AskHandler) Ask(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Bare(c, http.StatusBadRequest, "subject_id and question are required")
		return
	}
	mode, err := app.ParseMode(req.Mode)
	if err != nil {
		response.Bare(c, http.StatusBadRequest, "mode must be chat or voice_call")
		return
	}

	answer, err := h.answerService.Ask(c.Request.Context(), app.AskInput{
		SessionID: sessionID,
		SubjectID: req.SubjectID,
		Question:  req.Question,
		History:   req.ConversationHistory,
		Mode:      mode,
	})
	if err != nil {
		writeBareError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *AskHandler) StudySet(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	var req StudySetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Bare(c, http.StatusBadRequest, "subject_id is required")
		return
	}

	set, err := h.studySetService.Generate(c.Request.Context(), sessionID, req.SubjectID)
	if err != nil {
		writeBareError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *AskHandler) History(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.conversationService.History(c.Request.Context(), sessionID, c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, messages)
}
