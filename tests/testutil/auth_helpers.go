package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/rp-tuning/rp-tuning-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer, email string, scopes []string) *validator.ValidatedClaims {
	scopeString := ""
	if len(scopes) > 0 {
		for i, scope := range scopes {
			if i > 0 {
				scopeString += " "
			}
			scopeString += scope
		}
	}

	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: scopeString,
			Email: email,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, issuer, email string, scopes []string) {
	claims := MockValidatedClaims(userID, issuer, email, scopes)
	c.Set("user_id", userID)
	c.Set("validated_claims", claims)
}

// MockAdminContext is a gin middleware that injects admin claims, standing in
// for the real JWT middleware in tests
func MockAdminContext(adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, "auth0|admin", "https://test.auth0.local/", adminEmail, nil)
		c.Next()
	}
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
