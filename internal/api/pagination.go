package api

import (
	"strconv" // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// pageParams holds parsed page-number pagination parameters
type pageParams struct {
	Page     int // Current page, 1-based
	PageSize int // Items per page
	Offset   int // Offset into the result set
}

// parsePage reads page/page_size query parameters with the usual
// defaults (page 1, size 20, size capped at 100)
func parsePage(c *gin.Context) pageParams {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size if valid
		}
	}
	return pageParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize, // Offset for the query
	}
}

// paginated wraps a page of results with pagination metadata
func paginated(results any, p pageParams, total int64) gin.H {
	totalPages := (int(total) + p.PageSize - 1) / p.PageSize // Total pages
	return gin.H{
		"results":     results,    // Page of items
		"page":        p.Page,     // Current page
		"page_size":   p.PageSize, // Page size
		"total":       total,      // Total item count
		"total_pages": totalPages, // Total pages
	}
}
