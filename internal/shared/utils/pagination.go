package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/query"
)

// ParsePagination reads page and page_size from the query string, applying
// defaults and the maximum page size.
func ParsePagination(c *gin.Context) query.PageFilter {
	pageSize := parseQueryInt(c, "page_size", constants.DefaultPageSize)
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}
	return query.PageFilter{
		Page:     parseQueryInt(c, "page", constants.DefaultPage),
		PageSize: pageSize,
	}
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 1 {
			return n
		}
	}
	return defaultVal
}

// TotalPages calculates total pages for a given total count.
func TotalPages(total int64, pageSize int) int {
	if total == 0 || pageSize <= 0 {
		return 1
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
