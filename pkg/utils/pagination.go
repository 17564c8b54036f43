package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginationParams carries offset pagination extracted from a request.
// Offsets are stable cursors here: listings are ordered by indexed fields, so
// re-paging from the same offset is restartable.
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

func GetPaginationParams(c echo.Context) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}

	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}
