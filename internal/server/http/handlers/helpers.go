package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/samplestore/internal/server/http/dto"
	"github.com/polkiloo/samplestore/internal/server/http/middleware"
)

// CurrentAdmin extracts authenticated admin user from context.
func CurrentAdmin(c *gin.Context) string {
	return c.GetString(middleware.AdminContextKey)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// paging reads limit and offset query parameters. Missing values yield zero.
func paging(c *gin.Context) (limit, offset int, ok bool) {
	var err error
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, false
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, false
		}
	}
	return limit, offset, true
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	abortError(c, http.StatusBadRequest, msg)
}
