package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"notewise/internal/app"
	"notewise/internal/model"
	"notewise/internal/transport/http/middleware"
	"notewise/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
	maxUploadSize   int64
}

type ProcessDocumentResponse struct {
	Success       bool `json:"success"`
	ChunksCreated int  `json:"chunks_created"`
}

func NewDocumentHandler(documentService *app.DocumentService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, maxUploadSize: maxUploadSize}
}

// Upload accepts a multipart "file" field. The response is sent once the file
// is stored; chunks appear later.
func (h *DocumentHandler) Upload(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		writeError(c, app.ErrFileTooLarge)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read upload failed")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read upload failed")
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		SessionID: sessionID,
		SubjectID: c.Param("id"),
		Filename:  fileHeader.Filename,
		Data:      data,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	docs, err := h.documentService.List(c.Request.Context(), sessionID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, docs)
}

// Process runs extraction and chunking synchronously for one document.
func (h *DocumentHandler) Process(c *gin.Context) {
	var job model.DocumentJob
	if err := c.ShouldBindJSON(&job); err != nil {
		response.Bare(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	n, err := h.documentService.Process(c.Request.Context(), job)
	if err != nil {
		writeBareError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProcessDocumentResponse{Success: true, ChunksCreated: n})
}
