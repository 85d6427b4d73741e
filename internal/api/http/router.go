package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	AllowedOrigins []string
	SignalingPath  string
	Auth           gin.HandlerFunc
	Sessions       *SessionController
	Signaling      *SignalingController
}

func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowOrigins = deps.AllowedOrigins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	if deps.Signaling != nil {
		path := deps.SignalingPath
		if path == "" {
			path = "/ws"
		}
		router.GET(path, deps.Signaling.Connect)
	}

	api := router.Group("/api")

	if deps.Sessions != nil {
		sessions := api.Group("/sessions")
		if deps.Auth != nil {
			sessions.Use(deps.Auth)
		}
		sessions.POST("/:projectId/run", deps.Sessions.Run)
		sessions.POST("/:projectId/stop", deps.Sessions.Stop)
		sessions.GET("/:projectId", deps.Sessions.Status)
	}

	return router
}
