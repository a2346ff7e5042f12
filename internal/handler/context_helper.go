package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-tracker/internal/middleware"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/response"
)

// currentUser returns the authenticated claims or writes 401 and reports false.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
