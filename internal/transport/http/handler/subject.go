package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notewise/internal/app"
	"notewise/internal/transport/http/middleware"
	"notewise/internal/transport/http/response"
)

type SubjectHandler struct {
	subjectService *app.SubjectService
}

type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func NewSubjectHandler(subjectService *app.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

func (h *SubjectHandler) Create(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	subject, err := h.subjectService.Create(c.Request.Context(), sessionID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, subject)
}

func (h *SubjectHandler) List(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	subjects, err := h.subjectService.List(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, subjects)
}

func (h *SubjectHandler) Delete(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if err := h.subjectService.Delete(c.Request.Context(), sessionID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
