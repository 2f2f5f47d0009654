package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// Error отображает apperror в HTTP статус. Нетипизированные ошибки скрываются за INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		abort(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message)
		return
	}

	abort(c, http.StatusInternalServerError, string(apperror.ErrCodeInternal), "внутренняя ошибка сервера")
}

func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, string(apperror.ErrCodeBadRequest), message)
}

func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, string(apperror.ErrCodeUnauthorized), message)
}

func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, string(apperror.ErrCodeForbidden), message)
}

func abort(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
