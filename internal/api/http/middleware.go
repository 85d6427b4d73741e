package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/internal/repository"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
)

const userContextKey = "user"

// Claims is the token payload issued by the account service.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates an HS256 bearer token and loads its user.
func AuthMiddleware(secret string, users repository.UserRepository, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	key := []byte(secret)

	return func(ctx *gin.Context) {
		const op = "http.middleware.auth"

		header := ctx.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, no token"})
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid || claims.UserID == "" {
			log.Info("token rejected", slog.String("op", op), sl.Err(err))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, token failed"})
			return
		}

		user, err := users.GetByID(ctx.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, repository.ErrUserNotFound) {
				log.Error("failed to load user", slog.String("op", op), sl.Err(err))
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no user found with this token"})
			return
		}

		ctx.Set(userContextKey, user)
		ctx.Next()
	}
}

func currentUser(ctx *gin.Context) (*domain.User, bool) {
	v, ok := ctx.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}
