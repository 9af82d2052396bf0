package admin

import (
	"strconv"

	handlershared "github.com/sokoni-shop/internal/http/handlers/shared"
	"github.com/sokoni-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id parameter", nil)
		return 0, false
	}
	return uint(id), true
}
