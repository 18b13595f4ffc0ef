package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/homeschool-planner-api/internal/models"
	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
	"github.com/noah-isme/homeschool-planner-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT requires a bearer access token and stores its claims for the handlers. The
// subject claim identifies the parent account that owns term plans and students.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			return
		}
		claims, err := auth.ValidateToken(token)
		if err != nil {
			reject(c, err)
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(c *gin.Context, err error) {
	c.Header("WWW-Authenticate", `Bearer realm="homeschool-planner"`)
	response.Error(c, err)
	c.Abort()
}
