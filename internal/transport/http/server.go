package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"notewise/internal/bootstrap"
	"notewise/internal/transport/http/handler"
	"notewise/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(app.Logger))
	router.MaxMultipartMemory = app.Config.Storage.MaxUploadSize + 1<<20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	services := app.Services
	sessionHandler := handler.NewSessionHandler(
		app.Config.Session.TokenSecret,
		time.Duration(app.Config.Session.TokenExpireHour)*time.Hour,
	)
	subjectHandler := handler.NewSubjectHandler(services.Subjects)
	documentHandler := handler.NewDocumentHandler(services.Documents, app.Config.Storage.MaxUploadSize)
	askHandler := handler.NewAskHandler(services.Answers, services.StudySets, services.Conversations)

	Register(router, Handlers{
		SessionSecret: app.Config.Session.TokenSecret,
		InternalToken: app.Config.App.InternalToken,
		Session:       sessionHandler,
		Subject:       subjectHandler,
		Document:      documentHandler,
		Ask:           askHandler,
	})
	return router
}

type Handlers struct {
	SessionSecret string
	InternalToken string
	Session       *handler.SessionHandler
	Subject       *handler.SubjectHandler
	Document      *handler.DocumentHandler
	Ask           *handler.AskHandler
}

// Register mounts the API routes on router.
func Register(router *gin.Engine, h Handlers) {
	v1 := router.Group("/api/v1")
	v1.POST("/session", h.Session.Issue)

	authed := v1.Group("")
	authed.Use(middleware.SessionToken(h.SessionSecret))
	authed.POST("/ask", h.Ask.Ask)
	authed.POST("/study-set", h.Ask.StudySet)

	subjects := authed.Group("/subjects")
	subjects.POST("", h.Subject.Create)
	subjects.GET("", h.Subject.List)
	subjects.DELETE("/:id", h.Subject.Delete)
	subjects.POST("/:id/documents", h.Document.Upload)
	subjects.GET("/:id/documents", h.Document.List)
	subjects.GET("/:id/messages", h.Ask.History)

	internal := router.Group("/internal")
	internal.Use(middleware.InternalToken(h.InternalToken))
	internal.POST("/documents/process", h.Document.Process)
}
