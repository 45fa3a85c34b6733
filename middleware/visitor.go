package middleware

import (
	"errors"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/divijshrivastava/hisrage/store"
)

const sessionCookie = "hisrage_session"

// Visitor establishes who the caller is. Guests get a session cookie on
// first contact; an optional bearer token adds the authenticated user id.
// Nothing here rejects a request: identity is resolved, not enforced.
func Visitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(sessionCookie, sessionID, 24*60*60, "/", "", false, true)
		}
		c.Set("session_id", sessionID)

		if userID, ok := userFromToken(c.GetHeader("Authorization")); ok {
			c.Set("user_id", userID)
		}

		c.Next()
	}
}

func userFromToken(header string) (uint, bool) {
	if header == "" {
		return 0, false
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// RequireUser gates endpoints that only make sense for logged-in visitors.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentOwner derives the cart owner from the request context. The
// authenticated user identity always wins over the anonymous session.
func CurrentOwner(c *gin.Context) store.Owner {
	owner := store.Owner{}
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uint); ok {
			owner.UserID = &id
		}
	}
	if v, exists := c.Get("session_id"); exists {
		if sid, ok := v.(string); ok {
			owner.SessionID = sid
		}
	}
	return owner
}
