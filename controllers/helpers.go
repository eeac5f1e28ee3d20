package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rkodela/dailyquest/utils"
)

// parseUserID reads the :id path parameter; writes a 400 response on failure.
func parseUserID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid user id")
		return 0, false
	}
	return uint(id), true
}
