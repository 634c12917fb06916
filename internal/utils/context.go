package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/workqueue-dev/workqueue/internal/middleware"
	"github.com/workqueue-dev/workqueue/internal/types"
)

var ErrNotAuthenticated = errors.New("no authenticated user in context")

// GetCurrentUser pulls the user the auth middleware stashed in the
// request context.
func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	value, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	user, ok := value.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	return user, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)
	return user.ID, err
}
