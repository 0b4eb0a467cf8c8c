package middleware

import (
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/servicehub/marketplace/shared/apperrors"
	"go.uber.org/zap"
)

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithAppError maps err onto its status. Internal errors are logged in
// full and answered with a generic message.
func RespondWithAppError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if apperrors.KindOf(err) == apperrors.KindInternal {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	RespondWithError(c, status, capitalize(apperrors.Public(err)))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
