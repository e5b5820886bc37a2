package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	grpcmiddleware "realtime-users/internal/adapter/grpc/middleware"
	"realtime-users/internal/usecase/auth"
)

// RequireSession rejects requests without a valid bearer token. Websocket
// clients that cannot set headers may pass the token as ?access_token=.
func RequireSession(verifier grpcmiddleware.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "not signed in",
			})
			return
		}

		session, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "invalid or expired session",
			})
			return
		}

		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), session))
		c.Next()
	}
}
