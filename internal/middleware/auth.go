package middleware

import (
	"strings"

	"collaborative-canvas/auth"
	"collaborative-canvas/internal/errors"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the session token and attaches the user id to the
// request context. The token is taken from the Authorization header or, for
// clients that cannot set headers, the "token" query parameter.
func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var token string
		authHeader := ctx.GetHeader("Authorization")
		tokenQuery := ctx.Query("token")

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("No token provided", nil))
			ctx.Abort()
			return
		}

		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token", err))
			ctx.Abort()
			return
		}

		userID, err := auth.UserIDFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", userID)
		ctx.Next()
	}
}
