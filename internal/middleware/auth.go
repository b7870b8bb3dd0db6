package middleware

import (
	"strings"

	"blogengine/internal/pkg/apperror"
	"blogengine/internal/pkg/jwt"
	"blogengine/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// AccessVerifier is the part of the token codec the gate needs.
type AccessVerifier interface {
	VerifyAccess(token string) (*jwt.Claims, bool)
}

var (
	errHeaderMissing = apperror.NewAuthentication("").WithCode("AUTH_HEADER_MISSING")
	errInvalidFormat = apperror.NewAuthentication("").WithCode("INVALID_AUTH_FORMAT")
	errInvalidToken  = apperror.NewAuthentication("").WithCode("INVALID_TOKEN")
)

// Authenticate resolves an Authorization header value to a user id. It is
// stateless: no storage is consulted, so an access token stays valid until
// it expires.
func Authenticate(v AccessVerifier, header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errHeaderMissing
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errInvalidFormat
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errInvalidFormat
	}

	claims, ok := v.VerifyAccess(token)
	if !ok {
		return "", errInvalidToken
	}
	return claims.UserID, nil
}

// JWTAuth gates protected routes and exposes the user id under "user_id".
func JWTAuth(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := Authenticate(v, c.GetHeader("Authorization"))
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id set by JWTAuth, or "" outside protected routes.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
