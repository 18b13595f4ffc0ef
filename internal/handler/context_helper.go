package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/homeschool-planner-api/internal/middleware"
	"github.com/noah-isme/homeschool-planner-api/internal/models"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireOwner returns the account id of the caller, writing 401 when it is missing.
func requireOwner(c *gin.Context) (string, bool) {
	owner := claimsFromContext(c).UserID()
	if owner == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return owner, true
}
