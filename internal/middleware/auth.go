package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"wastemarket/mobile/internal/models"
)

const currentUserKey = "current_user"

// Authenticator resolves a session cookie value to its account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Account, error)
}

// Auth rejects requests without a live session cookie.
func Auth(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)

		account, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Success: false,
				Message: "Not authorized",
			})
			return
		}

		c.Set(currentUserKey, account)
		c.Next()
	}
}

// CurrentUser returns the account Auth attached to the request.
func CurrentUser(c *gin.Context) (models.Account, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return models.Account{}, false
	}
	account, ok := val.(models.Account)
	return account, ok
}
