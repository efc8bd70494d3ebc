package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/service"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

// MatrixHandler serves the matrix view: paginated search and identifier
// lookups.
type MatrixHandler struct {
	queryService *service.QueryService
}

// NewMatrixHandler constructs a MatrixHandler.
func NewMatrixHandler(queryService *service.QueryService) *MatrixHandler {
	return &MatrixHandler{queryService: queryService}
}

// Search resolves one search page. An empty query browses the whole view;
// the cursor resumes a previous page.
func (h *MatrixHandler) Search(c *gin.Context) {
	query := c.Query("q")
	cursor := c.Query("cursor")

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.Error(c, 400, "INVALID_LIMIT", "limit must be an integer")
			return
		}
		limit = n
	}

	result, err := h.queryService.Search(c.Request.Context(), query, cursor, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to execute search")
		return
	}

	utils.SuccessWithCursor(c, 200, "Search executed successfully", gin.H{
		"rows": result.Rows,
		"mode": result.Mode,
	}, result.NextCursor)
}

// GetByGTIN returns one matrix entry. The path parameter accepts any raw
// spelling of the identifier.
func (h *MatrixHandler) GetByGTIN(c *gin.Context) {
	entry, err := h.queryService.Lookup(c.Request.Context(), c.Param("gtin"))
	if err != nil {
		if errors.Is(err, utils.ErrEntryNotFound) {
			utils.Error(c, 404, "NOT_FOUND", "No entry for this identifier")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to get entry")
		return
	}

	utils.Success(c, 200, "Entry retrieved successfully", entry)
}
