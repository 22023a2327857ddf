package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cablecast/cablecast/internal/db"
	"github.com/cablecast/cablecast/internal/logger"
	"github.com/cablecast/cablecast/internal/models"
)

// Request/Response DTOs

// CreateItemRequest represents a request to register a content item
type CreateItemRequest struct {
	LibraryID       string   `json:"library_id" binding:"required"`
	Name            string   `json:"name" binding:"required"`
	Description     *string  `json:"description,omitempty"`
	DurationSeconds int64    `json:"duration_seconds" binding:"gte=0"`
	Genres          []string `json:"genres,omitempty"`
	Kind            string   `json:"kind" binding:"required"`
	ReleaseYear     *int     `json:"release_year,omitempty"`
	Rating          *string  `json:"rating,omitempty"`
	Adult           bool     `json:"adult"`
}

// ItemListResponse represents a list of content items
type ItemListResponse struct {
	Items []*models.ContentItem `json:"items"`
	Total int                   `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LibraryHandler handles content library API requests
type LibraryHandler struct {
	repos *db.Repositories
}

// NewLibraryHandler creates a new library handler instance
func NewLibraryHandler(repos *db.Repositories) *LibraryHandler {
	return &LibraryHandler{repos: repos}
}

// CreateItem handles POST /api/library/items
func (h *LibraryHandler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	item := models.NewContentItem(req.LibraryID, req.Name, req.DurationSeconds, models.ContentKind(req.Kind))
	item.Description = req.Description
	item.Genres = req.Genres
	item.ReleaseYear = req.ReleaseYear
	item.Rating = req.Rating
	item.Adult = req.Adult

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Items.Create(ctx, item); err != nil {
		logger.Log.Error().
			Err(err).
			Str("library_id", req.LibraryID).
			Str("name", req.Name).
			Msg("Failed to create content item")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to register content item",
		})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListItems handles GET /api/library/items?library_id=&kind=
func (h *LibraryHandler) ListItems(c *gin.Context) {
	libraryID := c.Query("library_id")
	if libraryID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_library_id",
			Message: "library_id query parameter is required",
		})
		return
	}

	var kinds []models.ContentKind
	if kind := c.Query("kind"); kind != "" {
		kinds = append(kinds, models.ContentKind(kind))
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.repos.Items.ListByLibrary(ctx, libraryID, kinds)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("library_id", libraryID).
			Msg("Failed to list content items")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to list content items",
		})
		return
	}

	c.JSON(http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

// DeleteItem handles DELETE /api/library/items/:id
func (h *LibraryHandler) DeleteItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Item ID must be a valid UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Items.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Content item not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete content item",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// SetupLibraryRoutes registers content library routes
func SetupLibraryRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories) {
	handler := NewLibraryHandler(repos)

	apiGroup.POST("/library/items", handler.CreateItem)
	apiGroup.GET("/library/items", handler.ListItems)
	apiGroup.DELETE("/library/items/:id", handler.DeleteItem)
}
