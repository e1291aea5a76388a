package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senator-investech/access-api/internal/middleware"
	"github.com/senator-investech/access-api/internal/models"
)

const dateQueryLayout = "2006-01-02"

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

// dateQuery parses an optional YYYY-MM-DD query parameter. A missing
// parameter yields the zero time.
func dateQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(dateQueryLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date, expected YYYY-MM-DD", name)
	}
	return parsed, nil
}
