package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/rnplay/internal/api/http/converter"
	"github.com/immxrtalbeast/rnplay/internal/service"
)

type SessionController struct {
	sessions service.SessionInteractor
}

func NewSessionController(sessions service.SessionInteractor) *SessionController {
	return &SessionController{sessions: sessions}
}

func (c *SessionController) Run(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
		return
	}
	projectID := ctx.Param("projectId")

	sessionID, err := c.sessions.StartSession(ctx.Request.Context(), user.ID, projectID)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "project not found or you do not have permission to run it"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start the session"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":   "session started",
		"sessionId": sessionID,
		"projectId": projectID,
	})
}

func (c *SessionController) Stop(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
		return
	}

	err := c.sessions.StopSession(ctx.Request.Context(), user.ID, ctx.Param("projectId"))
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stop the session"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "session stopped"})
}

func (c *SessionController) Status(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
		return
	}

	snap, err := c.sessions.GetSession(ctx.Request.Context(), user.ID, ctx.Param("projectId"))
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) || errors.Is(err, service.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load the session"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(snap)})
}
