package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/http/middleware"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/response"
)

func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDValue, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errors.New("userID не найден в контексте")
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("некорректный формат userID")
	}

	return userID, nil
}

func getRole(c *gin.Context) valueobject.Role {
	role, _ := c.Get(middleware.ContextRoleKey)
	r, _ := role.(valueobject.Role)
	return r
}

// actor достаёт пользователя из контекста; при ошибке сам отвечает 401.
func actor(c *gin.Context) (uuid.UUID, valueobject.Role, bool) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return uuid.Nil, "", false
	}
	return userID, getRole(c), true
}

// pathID разбирает UUID из параметра пути; при ошибке сам отвечает 400.
func pathID(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}

	return value
}
