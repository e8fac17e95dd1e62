package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/aryan-madhavi/healthshare/internal/model"
)

const (
	ctxActorID   = "hs.actorID"
	ctxActorRole = "hs.actorRole"
)

// authClaims are the token claims the identity collaborator issues: subject
// is the actor ID, role is the actor's role. The engine trusts this input.
type authClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Auth verifies the HS256 bearer token and stores actor identity in the
// request context. Identity is supplied, never re-verified, downstream.
func Auth(signKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" || raw == c.GetHeader("Authorization") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		var claims authClaims
		tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrSignatureInvalid
			}
			return signKey, nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		actorID, err := uuid.FromString(claims.Subject)
		if err != nil || actorID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject"})
			return
		}
		role := model.Role(claims.Role)
		if !role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid role"})
			return
		}
		c.Set(ctxActorID, actorID)
		c.Set(ctxActorRole, role)
		c.Next()
	}
}

// actorFromCtx fetches the authenticated identity stored by Auth.
func actorFromCtx(c *gin.Context) (uuid.UUID, model.Role, bool) {
	id, ok := c.Get(ctxActorID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, ok := c.Get(ctxActorRole)
	if !ok {
		return uuid.Nil, "", false
	}
	return id.(uuid.UUID), role.(model.Role), true
}

// Logging emits one structured line per request: metadata only, no payloads.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// Recovery converts panics into 500s and logs the stack.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			}
		}()
		c.Next()
	}
}
