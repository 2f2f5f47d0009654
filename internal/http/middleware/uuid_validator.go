package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
)

// UUIDValidator проверяет, что параметры пути являются валидными UUID.
// Использование: router.GET("/orders/:id", UUIDValidator("id"), handler.GetOrder)
func UUIDValidator(paramNames ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range paramNames {
			raw := c.Param(name)
			if raw == "" {
				response.BadRequest(c, "параметр "+name+" обязателен")
				c.Abort()
				return
			}
			if _, err := uuid.Parse(raw); err != nil {
				response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
