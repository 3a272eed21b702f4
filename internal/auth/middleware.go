package auth

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// UserProvisioner resolves a verified identity to a database user id,
// creating the row on first sign-in.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, firebaseUID, email string) (int64, error)
}

// TokenVerifier is the slice of the Firebase client the middleware needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Middleware authenticates the request from its Bearer token and attaches
// the resolved user to the context. Requests without a valid token get 401.
func Middleware(verifier TokenVerifier, users UserProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing bearer token"})
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}

		email, _ := token.Claims["email"].(string)
		dbID, err := users.EnsureUser(c.Request.Context(), token.UID, email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not resolve user"})
			return
		}

		WithUser(c, User{DBID: dbID, FirebaseUID: token.UID, Email: email})
		c.Next()
	}
}

// DevMiddleware authenticates from the X-Dev-User header. Only wired when
// the app runs in the development environment without Firebase credentials.
func DevMiddleware(users UserProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-Dev-User")
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing X-Dev-User header"})
			return
		}

		dbID, err := users.EnsureUser(c.Request.Context(), "dev:"+email, email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not resolve user"})
			return
		}

		WithUser(c, User{DBID: dbID, FirebaseUID: "dev:" + email, Email: email})
		c.Next()
	}
}
