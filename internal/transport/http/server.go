package http

import (
	"github.com/gin-gonic/gin"

	"hierarag/internal/bootstrap"
	"hierarag/internal/pkg/jwtutil"
	"hierarag/internal/transport/http/handler"
	"hierarag/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	checks := map[string]handler.Check{}
	for name, check := range app.HealthChecks() {
		checks[name] = check
	}
	healthHandler := handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, checks, app.Ingest)
	router.GET("/healthz", healthHandler.Check)

	var publisher handler.JobPublisher
	if app.Publisher != nil {
		publisher = app.Publisher
	}
	ingestHandler := handler.NewIngestHandler(app.Ingest, publisher)
	chatHandler := handler.NewChatHandler(app.Simple, app.Agentic, app.Config.QueryTimeout())

	v1 := router.Group("/api/v1")
	ingestGroup := v1.Group("/ingest")
	if app.Config.Auth.RequireToken {
		ingestGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret, jwtutil.ScopeIngest))
	}
	ingestGroup.POST("", ingestHandler.Upload)
	ingestGroup.POST("/text", ingestHandler.IngestText)
	ingestGroup.POST("/async", ingestHandler.Async)

	chatGroup := v1.Group("/chat")
	if app.Config.Auth.RequireToken {
		chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret, jwtutil.ScopeQuery))
	}
	chatGroup.POST("/simple", chatHandler.Simple)
	chatGroup.POST("/agentic", chatHandler.Agentic)

	return router
}
