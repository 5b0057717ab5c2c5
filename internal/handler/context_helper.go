package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/takwin-center/takwin-api/internal/middleware"
	"github.com/takwin-center/takwin-api/internal/models"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.AccessClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

func sessionIDParam(c *gin.Context) (int, error) {
	raw := c.Param("sessionId")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "sessionId must be a number")
	}
	return id, nil
}
