// Package api contains the HTTP handlers and DTOs exposed under /api.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cablecast/cablecast/internal/channel"
	"github.com/cablecast/cablecast/internal/logger"
	"github.com/cablecast/cablecast/internal/models"
	"github.com/cablecast/cablecast/internal/timeline"
)

const (
	defaultScheduleHours = 24
	requestTimeout       = 5 * time.Second
)

// Request/Response DTOs

// ChannelRequest represents a request to create or replace a channel
type ChannelRequest struct {
	ID          string                `json:"id,omitempty"`
	Name        string                `json:"name" binding:"required"`
	Number      int                   `json:"number" binding:"gte=0"`
	Description *string               `json:"description,omitempty"`
	LogoURL     *string               `json:"logo_url,omitempty"`
	Enabled     *bool                 `json:"enabled,omitempty"`
	Mode        *string               `json:"mode,omitempty"`
	LibraryIDs  []string              `json:"library_ids,omitempty"`
	Filter      *models.ContentFilter `json:"filter,omitempty"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Number      int                   `json:"number"`
	Description *string               `json:"description,omitempty"`
	LogoURL     *string               `json:"logo_url,omitempty"`
	Enabled     bool                  `json:"enabled"`
	Mode        string                `json:"mode"`
	LibraryIDs  []string              `json:"library_ids"`
	Filter      *models.ContentFilter `json:"filter,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ChannelListResponse represents a list of channels
type ChannelListResponse struct {
	Channels []*ChannelResponse `json:"channels"`
}

// BlockResponse represents a scheduled block in API responses
type BlockResponse struct {
	ID               string    `json:"id"`
	ChannelID        string    `json:"channel_id"`
	ItemID           string    `json:"item_id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Kind             string    `json:"kind"`
	AllowCommercials bool      `json:"allow_commercials"`
	AllowPreRoll     bool      `json:"allow_pre_roll"`
}

// ScheduleResponse represents a window of a channel's schedule
type ScheduleResponse struct {
	ChannelID string           `json:"channel_id"`
	Blocks    []*BlockResponse `json:"blocks"`
}

// ChannelHandler handles channel-related API requests
type ChannelHandler struct {
	service *channel.Service
}

// NewChannelHandler creates a new channel handler instance
func NewChannelHandler(service *channel.Service) *ChannelHandler {
	return &ChannelHandler{service: service}
}

// toChannelResponse converts a channel model to API response format
func toChannelResponse(ch *models.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:          ch.ID,
		Name:        ch.Name,
		Number:      ch.Number,
		Description: ch.Description,
		LogoURL:     ch.LogoURL,
		Enabled:     ch.Enabled,
		Mode:        string(ch.Mode),
		LibraryIDs:  ch.LibraryIDs,
		Filter:      ch.Filter,
		CreatedAt:   ch.CreatedAt,
		UpdatedAt:   ch.UpdatedAt,
	}
}

// toBlockResponse converts a scheduled block to API response format
func toBlockResponse(b *models.ScheduledBlock) *BlockResponse {
	return &BlockResponse{
		ID:               b.ID.String(),
		ChannelID:        b.ChannelID,
		ItemID:           b.ItemID.String(),
		Title:            b.Title,
		Description:      b.Description,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		Kind:             string(b.Kind),
		AllowCommercials: b.AllowCommercials,
		AllowPreRoll:     b.AllowPreRoll,
	}
}

func toBlockResponses(blocks []*models.ScheduledBlock) []*BlockResponse {
	out := make([]*BlockResponse, len(blocks))
	for i, b := range blocks {
		out[i] = toBlockResponse(b)
	}
	return out
}

// toChannelModel converts a request DTO to a channel model
func toChannelModel(req *ChannelRequest) *models.Channel {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	mode := models.ProgrammingContinuous
	if req.Mode != nil {
		mode = models.ProgrammingMode(*req.Mode)
	}
	return &models.Channel{
		ID:          req.ID,
		Name:        req.Name,
		Number:      req.Number,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		Enabled:     enabled,
		Mode:        mode,
		LibraryIDs:  req.LibraryIDs,
		Filter:      req.Filter,
	}
}

// CreateChannel handles POST /api/channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ch := toChannelModel(&req)
	if err := h.service.Create(ctx, ch); err != nil {
		if errors.Is(err, channel.ErrDuplicateChannelName) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "A channel with this name already exists",
			})
			return
		}
		if errors.Is(err, channel.ErrInvalidChannel) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_channel",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create channel",
		})
		return
	}

	// Seed the new channel with an initial day of programming.
	if _, err := h.service.Regenerate(ctx, ch.ID, defaultScheduleHours); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", ch.ID).
			Msg("Initial schedule generation failed, maintenance will retry")
	}

	created, err := h.service.Get(ch.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to read back created channel",
		})
		return
	}

	c.JSON(http.StatusCreated, toChannelResponse(created))
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels := h.service.List()

	responses := make([]*ChannelResponse, len(channels))
	for i, ch := range channels {
		responses[i] = toChannelResponse(ch)
	}

	c.JSON(http.StatusOK, ChannelListResponse{Channels: responses})
}

// GetChannel handles GET /api/channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	ch, err := h.service.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
		})
		return
	}
	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// UpdateChannel handles PUT /api/channels/:id
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ch := toChannelModel(&req)
	ch.ID = c.Param("id")

	if err := h.service.Update(ctx, ch); err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}
		if errors.Is(err, channel.ErrDuplicateChannelName) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "A channel with this name already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to update channel",
		})
		return
	}

	updated, err := h.service.Get(ch.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to read back updated channel",
		})
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(updated))
}

// DeleteChannel handles DELETE /api/channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.service.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete channel",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetCurrentProgram handles GET /api/channels/:id/current
func (h *ChannelHandler) GetCurrentProgram(c *gin.Context) {
	block, err := h.service.CurrentProgram(c.Param("id"), time.Now().UTC())
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}
		if errors.Is(err, timeline.ErrNoCurrentBlock) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_current_program",
				Message: "Nothing is scheduled on this channel right now",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to determine current program",
		})
		return
	}

	c.JSON(http.StatusOK, toBlockResponse(block))
}

// GetSchedule handles GET /api/channels/:id/schedule?start=&hours=
func (h *ChannelHandler) GetSchedule(c *gin.Context) {
	channelID := c.Param("id")

	start := time.Now().UTC()
	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_start",
				Message: "start must be an RFC3339 timestamp",
			})
			return
		}
		start = parsed.UTC()
	}

	hours, ok := parseHours(c, defaultScheduleHours)
	if !ok {
		return
	}

	blocks, err := h.service.Schedule(channelID, start, hours)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Channel not found",
		})
		return
	}

	c.JSON(http.StatusOK, ScheduleResponse{
		ChannelID: channelID,
		Blocks:    toBlockResponses(blocks),
	})
}

// RegenerateSchedule handles POST /api/channels/:id/regenerate
func (h *ChannelHandler) RegenerateSchedule(c *gin.Context) {
	channelID := c.Param("id")

	hours, ok := parseHours(c, defaultScheduleHours)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	blocks, err := h.service.Regenerate(ctx, channelID, hours)
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID).
			Msg("Failed to regenerate schedule")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "regenerate_failed",
			Message: "Failed to regenerate schedule",
		})
		return
	}

	c.JSON(http.StatusOK, ScheduleResponse{
		ChannelID: channelID,
		Blocks:    toBlockResponses(blocks),
	})
}

// parseHours reads the hours query parameter, writing a 400 response
// and returning false on invalid input.
func parseHours(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("hours")
	if raw == "" {
		return fallback, true
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 || hours > 24*7 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_hours",
			Message: "hours must be an integer between 1 and 168",
		})
		return 0, false
	}
	return hours, true
}

// SetupChannelRoutes registers channel-related routes
func SetupChannelRoutes(apiGroup *gin.RouterGroup, service *channel.Service) {
	handler := NewChannelHandler(service)

	// Channel CRUD endpoints
	apiGroup.POST("/channels", handler.CreateChannel)
	apiGroup.GET("/channels", handler.ListChannels)
	apiGroup.GET("/channels/:id", handler.GetChannel)
	apiGroup.PUT("/channels/:id", handler.UpdateChannel)
	apiGroup.DELETE("/channels/:id", handler.DeleteChannel)

	// Schedule endpoints
	apiGroup.GET("/channels/:id/current", handler.GetCurrentProgram)
	apiGroup.GET("/channels/:id/schedule", handler.GetSchedule)
	apiGroup.POST("/channels/:id/regenerate", handler.RegenerateSchedule)
}
