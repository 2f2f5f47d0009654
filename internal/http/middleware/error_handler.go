package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

// ErrorHandler отвечает за ошибки, добавленные через c.Error, если обработчик сам не записал ответ.
// Внутренние ошибки маскируются, клиент видит только код и стабильное сообщение.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		logRequestError(c, err)
		response.Error(c, err)
	}
}

// Recovery перехватывает panic в обработчиках и отвечает INTERNAL_ERROR.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic":  fmt.Sprint(r),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"stack":  string(debug.Stack()),
				}).Error("panic в обработчике")
				response.Error(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
				c.Abort()
			}
		}()
		c.Next()
	}
}

func logRequestError(c *gin.Context, err error) {
	entry := logger.Log.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	})

	switch apperror.CodeOf(err) {
	case apperror.ErrCodeIntegrity, apperror.ErrCodeDatabaseError, apperror.ErrCodeInternal, "":
		entry.Error("ошибка запроса")
	case apperror.ErrCodeGateway:
		entry.Warn("ошибка платёжного шлюза")
	default:
		entry.Debug("ошибка запроса")
	}
}
