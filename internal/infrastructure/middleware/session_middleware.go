package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mosaic/pkg/logger"
	"mosaic/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionContextKey is where the session ID lands in the gin context.
const SessionContextKey = "session_id"

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionMiddleware maintains an anonymous, signed session cookie. There is
// no user database behind it: the session ID only scopes the grid config
// and slot list to one browser.
func SessionMiddleware(cookieName, secret string, ttl time.Duration) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		sid := ""
		if raw, err := c.Cookie(cookieName); err == nil {
			sid = parseSessionToken(raw, key)
		}

		if sid == "" {
			sid = utils.GenerateSessionID()
			token, err := signSessionToken(sid, key, ttl)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "failed to establish session",
				})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, token, int(ttl.Seconds()), "/", "", false, true)
		}

		c.Set(SessionContextKey, sid)
		ctx := context.WithValue(c.Request.Context(), logger.SessionIDKey, sid)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func signSessionToken(sid string, key []byte, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func parseSessionToken(raw string, key []byte) string {
	token, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok {
		return ""
	}
	return claims.SessionID
}
